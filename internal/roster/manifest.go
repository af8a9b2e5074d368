package roster

import (
	"strings"

	"github.com/youruser/lanyard/internal/token"
)

// Entry is one rendered attendee with its share token.
type Entry struct {
	Attendee
	Token string
	URL   string
}

// Entries attaches tokens and share links, keeping roster order.
func Entries(attendees []Attendee, shareURL func(tok string) string) []Entry {
	out := make([]Entry, 0, len(attendees))
	for _, a := range attendees {
		tok := token.Encode(a.Identity())
		out = append(out, Entry{Attendee: a, Token: tok, URL: shareURL(tok)})
	}
	return out
}

// ManifestText renders entries as tab-separated lines under a header.
func ManifestText(entries []Entry) string {
	lines := []string{"name\tvariant\ttoken\turl"}
	for _, e := range entries {
		name := strings.NewReplacer("\t", " ", "\n", " ").Replace(e.Name)
		lines = append(lines, strings.Join([]string{name, string(e.Variant), e.Token, e.URL}, "\t"))
	}
	return strings.Join(lines, "\n") + "\n"
}
