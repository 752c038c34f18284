package domain

// PageKind distinguishes generated page families.
type PageKind string

const (
	PageKindToken       PageKind = "token"
	PageKindLeaderboard PageKind = "leaderboard"
)

// PageAction is the decision taken for a page.
type PageAction string

const (
	PageActionCreate PageAction = "create"
	PageActionUpdate PageAction = "update"
	PageActionSkip   PageAction = "skip"
)

// PageWrite is a pending page mutation computed for one run. Never persisted.
type PageWrite struct {
	PageName       string
	Kind           PageKind
	DesiredContent string
	CurrentContent string // empty when the page does not exist
	Exists         bool
	Action         PageAction
	Summary        string // edit summary
}

// NeedsWrite reports whether the page must be written.
func (w *PageWrite) NeedsWrite() bool {
	return w.Action == PageActionCreate || w.Action == PageActionUpdate
}

// Decide sets Action by comparing desired and current content byte-for-byte.
func (w *PageWrite) Decide() {
	switch {
	case !w.Exists:
		w.Action = PageActionCreate
	case w.CurrentContent == w.DesiredContent:
		w.Action = PageActionSkip
	default:
		w.Action = PageActionUpdate
	}
}
