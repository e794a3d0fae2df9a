package csvstore

import (
	"strings"
	"time"
)

// Header is the first line of every submissions file.
const Header = "timestamp,name,email,phone,message\n"

// TimestampFormat is ISO-8601 in UTC with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Record is one accepted contact submission.
type Record struct {
	Timestamp time.Time
	Name      string
	Email     string
	Phone     string
	Message   string
}

// Line renders the record as one CSV line including the trailing newline.
// The timestamp is written as is, every other field goes through Sanitize.
func (r Record) Line() string {
	var b strings.Builder
	b.WriteString(r.Timestamp.UTC().Format(TimestampFormat))
	for _, field := range []string{r.Name, r.Email, r.Phone, r.Message} {
		b.WriteByte(',')
		b.WriteString(Sanitize(field))
	}
	b.WriteByte('\n')
	return b.String()
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Sanitize makes a value safe for a single CSV field: line breaks become a
// space, surrounding whitespace is trimmed, and values holding a comma or a
// double quote are quoted with inner quotes doubled.
func Sanitize(value string) string {
	v := strings.TrimSpace(lineBreaks.Replace(value))
	if strings.ContainsAny(v, `,"`) {
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return v
}
