// Package submission maintains {{Blue Railroad Submission}} pages: the pinned
// video CID and the minted status of a workout submission.
package submission

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/storage"
)

// PagePrefix prefixes every submission page name.
const PagePrefix = "Blue Railroad Submission/"

// StatusMinted marks a submission whose token has been minted.
const StatusMinted = "Minted"

var (
	// ErrPageNotFound is returned when the submission page does not exist.
	ErrPageNotFound = errors.New("submission page not found")

	// ErrTemplateNotFound is returned when the page has no {{Blue Railroad Submission}} call.
	ErrTemplateNotFound = errors.New("submission template not found")
)

var submissionTemplate = regexp.MustCompile(`(?is)(\{\{Blue Railroad Submission\s*)(.*?)(\}\})`)

// PageName returns the wiki page of a submission.
func PageName(id int) string {
	return PagePrefix + strconv.Itoa(id)
}

// UpdateField sets |field=value inside the submission template.
// A missing field is appended before the closing braces. Text outside the
// template is untouched. changed is false when the field already holds value.
func UpdateField(text, field, value string) (updated string, changed bool, err error) {
	loc := submissionTemplate.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, false, ErrTemplateNotFound
	}
	head := text[loc[2]:loc[3]]
	body := text[loc[4]:loc[5]]
	tail := text[loc[6]:loc[7]]

	fieldRe := regexp.MustCompile(`(?i)\|` + regexp.QuoteMeta(field) + `\s*=([^|\n]*)`)
	param := "|" + field + "=" + value

	var newBody string
	if m := fieldRe.FindStringSubmatchIndex(body); m != nil {
		if strings.TrimSpace(body[m[2]:m[3]]) == value {
			return text, false, nil
		}
		newBody = body[:m[0]] + param + body[m[1]:]
	} else {
		newBody = strings.TrimRight(body, " \t\r\n") + "\n" + param + "\n"
	}

	return text[:loc[0]] + head + newBody + tail + text[loc[1]:], true, nil
}

// Result reports what happened to a submission page.
type Result struct {
	PageName string
	Action   domain.PageAction // update or skip
	Applied  bool              // false for skips and dry runs
	Summary  string
}

// Updater edits submission pages through a page store.
type Updater struct {
	pages  storage.PageStore
	dryRun bool
	log    *zap.Logger
}

// NewUpdater creates an Updater. In dry-run mode changes are logged, not written.
func NewUpdater(pages storage.PageStore, dryRun bool, logger *zap.Logger) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Updater{pages: pages, dryRun: dryRun, log: logger.With(zap.String("component", "submission"))}
}

// SetCID records the IPFS CID of a pinned submission video.
func (u *Updater) SetCID(ctx context.Context, id int, cid string) (*Result, error) {
	if strings.TrimSpace(cid) == "" {
		return nil, fmt.Errorf("%w: empty cid", storage.ErrInvalidInput)
	}
	summary := "Add IPFS CID: " + abbreviate(cid, 20)
	return u.update(ctx, id, "ipfs_cid", cid, summary)
}

// MarkMinted sets the submission status to Minted after a token was minted for it.
func (u *Updater) MarkMinted(ctx context.Context, id int, wallet string, tokenID int64) (*Result, error) {
	summary := fmt.Sprintf("Mark as minted: Token #%d to %s", tokenID, abbreviate(wallet, 10))
	return u.update(ctx, id, "status", StatusMinted, summary)
}

func (u *Updater) update(ctx context.Context, id int, field, value, summary string) (*Result, error) {
	name := PageName(id)
	res := &Result{PageName: name, Action: domain.PageActionSkip, Summary: summary}

	current, exists, err := u.pages.ReadPage(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, name)
	}

	updated, changed, err := UpdateField(current, field, value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if !changed {
		u.log.Info("submission unchanged", zap.String("page", name), zap.String("field", field))
		return res, nil
	}

	res.Action = domain.PageActionUpdate
	if u.dryRun {
		u.log.Info("would update submission", zap.String("page", name), zap.String("field", field), zap.String("value", value))
		return res, nil
	}

	if err := u.pages.WritePage(ctx, name, updated, summary); err != nil {
		return nil, err
	}
	res.Applied = true
	u.log.Info("updated submission", zap.String("page", name), zap.String("field", field), zap.String("value", value))
	return res, nil
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
