package reporting

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"blue-railroad-bot/internal/domain"
)

// TokenPageName returns the wiki page name of a token.
func TokenPageName(id int64) string {
	return "Blue Railroad Token " + strconv.FormatInt(id, 10)
}

// ThumbnailFilename returns the wiki file name of a video thumbnail, or "" without a CID.
func ThumbnailFilename(cid string) string {
	if cid == "" {
		return ""
	}
	return "Blue_Railroad_Video_" + cid + ".jpg"
}

// tokenTemplate matches the generated template call on an existing page.
var tokenTemplate = regexp.MustCompile(`\{\{Blue Railroad Token\s*\n(?:\|[^\n]*\n)*\}\}`)

// RenderTokenTemplate renders the {{Blue Railroad Token}} template call for a token.
// V1 tokens carry date/date_raw, V2 tokens blockheight/video_hash. Parameter
// names are the ones the wiki template reads.
func RenderTokenTemplate(t *domain.Token) string {
	var sb strings.Builder
	cid := t.IPFSCID()

	sb.WriteString("{{Blue Railroad Token\n")
	field(&sb, "token_id", strconv.FormatInt(t.ID, 10))
	field(&sb, "song_id", t.SongID())
	field(&sb, "contract_version", t.Version.String())
	field(&sb, "thumbnail", ThumbnailFilename(cid))

	if t.IsV2() {
		field(&sb, "blockheight", strconv.FormatInt(t.Ordering.Value, 10))
		field(&sb, "video_hash", t.Extra[domain.ExtraVideoHash])
	} else {
		raw := t.Extra[domain.ExtraDate]
		if raw == "" && !t.Ordering.IsZero() {
			raw = strconv.FormatInt(t.Ordering.Value, 10)
		}
		field(&sb, "date", t.Ordering.FormatDate())
		field(&sb, "date_raw", raw)
	}

	field(&sb, "owner", t.Owner)
	field(&sb, "owner_display", t.OwnerDisplay())
	field(&sb, "uri", tokenURI(t))
	uriType := "unknown"
	if cid != "" {
		uriType = "ipfs"
	}
	field(&sb, "uri_type", uriType)
	field(&sb, "ipfs_cid", cid)
	sb.WriteString("}}")

	return sb.String()
}

// RenderTokenPage renders the full content of a new token page.
// Only V2 tokens are categorised.
func RenderTokenPage(t *domain.Token) string {
	var sb strings.Builder
	sb.WriteString(RenderTokenTemplate(t))
	sb.WriteString("\n")
	if t.IsV2() {
		sb.WriteString("\n[[Category:Blue Railroad V2 Tokens]]")
	}
	return sb.String()
}

// RenderTokenPageOver returns the content a token page should have given its
// current content. Text outside the generated template call is kept as-is;
// a page without the template is replaced entirely.
func RenderTokenPageOver(current string, t *domain.Token) string {
	loc := tokenTemplate.FindStringIndex(current)
	if loc == nil {
		return RenderTokenPage(t)
	}
	return current[:loc[0]] + RenderTokenTemplate(t) + current[loc[1]:]
}

func tokenURI(t *domain.Token) string {
	if !t.IsV2() {
		return t.Video
	}
	if u := t.Extra[domain.ExtraURI]; u != "" {
		return u
	}
	if t.Video != "" {
		return "ipfs://" + t.Video
	}
	return ""
}

// field writes one "|name=value" template parameter. Newlines and pipes would
// break the template, so they are flattened.
func field(sb *strings.Builder, name, value string) {
	value = strings.NewReplacer("\r", " ", "\n", " ", "|", "{{!}}").Replace(value)
	sb.WriteString("|")
	sb.WriteString(name)
	sb.WriteString("=")
	sb.WriteString(value)
	sb.WriteString("\n")
}

// TemplateFields returns the parameters of the first generated template call in text.
func TemplateFields(text string) map[string]string {
	m := tokenTemplate.FindString(text)
	if m == "" {
		return nil
	}
	fields := make(map[string]string)
	for _, line := range strings.Split(m, "\n") {
		if !strings.HasPrefix(line, "|") {
			continue
		}
		name, value, _ := strings.Cut(line[1:], "=")
		fields[name] = value
	}
	return fields
}

// ChangedFields lists, sorted, the template parameters that differ between two page texts.
func ChangedFields(current, desired string) []string {
	before, after := TemplateFields(current), TemplateFields(desired)
	var changed []string
	for name, v := range after {
		if old, ok := before[name]; !ok || old != v {
			changed = append(changed, name)
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}
