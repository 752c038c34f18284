package normalization

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord matches every *MalformedRecordError via errors.Is.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError reports a chain-data record that cannot become a Token.
// It is recoverable: the record is skipped and its siblings keep processing.
type MalformedRecordError struct {
	SourceKey string
	RecordID  string // raw snapshot key, "" if unknown
	Reason    string
}

func (e *MalformedRecordError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("malformed record in %s: %s", e.SourceKey, e.Reason)
	}
	return fmt.Sprintf("malformed record %s/%s: %s", e.SourceKey, e.RecordID, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedRecord) succeed.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func malformed(sourceKey, recordID, format string, args ...interface{}) error {
	return &MalformedRecordError{
		SourceKey: sourceKey,
		RecordID:  recordID,
		Reason:    fmt.Sprintf(format, args...),
	}
}
