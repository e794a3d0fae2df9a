package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/angeloszaimis/solar-site/internal/csvstore"
)

var ErrInvalidJSON = errors.New("invalid JSON payload")

// Submission is a decoded contact form. Empty strings stand for absent or
// falsy JSON values.
type Submission struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// Validate requires name, email and message. Whitespace-only values count
// as present.
func (s Submission) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Email, validation.Required),
		validation.Field(&s.Message, validation.Required),
	)
}

// Record stamps the submission with ts.
func (s Submission) Record(ts time.Time) csvstore.Record {
	return csvstore.Record{
		Timestamp: ts,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		Message:   s.Message,
	}
}

// ParseSubmission decodes a request body. An empty body is an empty object,
// a whitespace-only body is malformed.
// Valid JSON that is not an object yields an empty Submission; only
// malformed JSON is an error.
func ParseSubmission(body []byte) (Submission, error) {
	if len(body) == 0 {
		return Submission{}, nil
	}
	if !json.Valid(body) {
		return Submission{}, ErrInvalidJSON
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Submission{}, nil
		}
		return Submission{}, ErrInvalidJSON
	}

	return Submission{
		Name:    string(p.Name),
		Email:   string(p.Email),
		Phone:   string(p.Phone),
		Message: string(p.Message),
	}, nil
}

type payload struct {
	Name    text `json:"name"`
	Email   text `json:"email"`
	Phone   text `json:"phone"`
	Message text `json:"message"`
}

// text is the string form of any JSON value. Falsy values (null, false, 0,
// "") decode to the empty string, so a non-empty text is always truthy.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}

	switch b[0] {
	case 'n', 'f':
		*t = ""
	case 't':
		*t = "true"
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return err
		}
		*t = text(buf.String())
	default:
		*t = text(formatNumber(string(b)))
	}

	return nil
}

// formatNumber renders a JSON number the way JavaScript's String does:
// plain decimals between 1e-6 and 1e21, exponent form outside that range,
// and Infinity on overflow.
func formatNumber(literal string) string {
	f, err := strconv.ParseFloat(literal, 64)
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case err != nil:
		return literal
	case f == 0:
		return ""
	}

	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
