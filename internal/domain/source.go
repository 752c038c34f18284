package domain

// Version identifies the token contract generation a source was minted under.
type Version string

const (
	VersionV1 Version = "V1"
	VersionV2 Version = "V2"
)

// String returns the string representation of Version.
func (v Version) String() string {
	return string(v)
}

// IsValid checks if the version is a valid value.
func (v Version) IsValid() bool {
	return v == VersionV1 || v == VersionV2
}

// SourceDecl declares one chain-data collection to read.
// The version is declared here and never inferred from record shape.
type SourceDecl struct {
	Key       string  // chain-data key, e.g. "blueRailroads"
	Name      string  // human-readable label
	Version   Version // V1 | V2
	NetworkID string  // chain id the contract lives on
	Contract  string  // contract address (optional)
}
