// Package portable reads and writes fundwise data as YAML documents.
package portable

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the document format written by Encode.
const CurrentVersion = 1

// Document is the on-disk import/export format.
type Document struct {
	Version     int          `yaml:"version" validate:"gte=0,lte=1"`
	Currency    string       `yaml:"currency,omitempty" validate:"omitempty,len=3"`
	Categories  []Category   `yaml:"categories,omitempty" validate:"dive"`
	Obligations []Obligation `yaml:"obligations,omitempty" validate:"dive"`
	Goals       []Goal       `yaml:"goals,omitempty" validate:"dive"`
}

// Category is a named obligation group.
type Category struct {
	ID   string `yaml:"id,omitempty" validate:"omitempty,ulid"`
	Name string `yaml:"name" validate:"required,max=64"`
}

// Obligation is a recurring bill with its payment history.
type Obligation struct {
	ID        string    `yaml:"id,omitempty" validate:"omitempty,ulid"`
	Name      string    `yaml:"name" validate:"required,max=128"`
	Amount    string    `yaml:"amount" validate:"required,positive_decimal"`
	Frequency string    `yaml:"frequency" validate:"required,oneof=monthly quarterly yearly"`
	NextDue   string    `yaml:"next_due" validate:"required,datetime=2006-01-02"`
	Category  string    `yaml:"category,omitempty" validate:"omitempty,max=64"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
	Payments  []Payment `yaml:"payments,omitempty" validate:"dive"`
}

// Payment is one recorded "mark as paid".
type Payment struct {
	ID      string    `yaml:"id,omitempty" validate:"omitempty,ulid"`
	Amount  string    `yaml:"amount" validate:"required,decimal_string"`
	DueDate string    `yaml:"due_date" validate:"required,datetime=2006-01-02"`
	PaidAt  time.Time `yaml:"paid_at" validate:"required"`
}

// Goal is a savings goal with its contribution history.
type Goal struct {
	ID                string         `yaml:"id,omitempty" validate:"omitempty,ulid"`
	Name              string         `yaml:"name" validate:"required,max=128"`
	Target            string         `yaml:"target" validate:"required,positive_decimal"`
	Current           string         `yaml:"current,omitempty" validate:"omitempty,decimal_string"`
	MonthlyAllocation string         `yaml:"monthly_allocation,omitempty" validate:"omitempty,positive_decimal"`
	TargetDate        string         `yaml:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CompletedAt       *time.Time     `yaml:"completed_at,omitempty"`
	CreatedAt         time.Time      `yaml:"created_at,omitempty"`
	Contributions     []Contribution `yaml:"contributions,omitempty" validate:"dive"`
}

// Contribution is one change to a goal balance. Negative amounts are
// corrections.
type Contribution struct {
	ID        string    `yaml:"id,omitempty" validate:"omitempty,ulid"`
	Amount    string    `yaml:"amount" validate:"required,decimal_string"`
	Note      string    `yaml:"note,omitempty" validate:"max=256"`
	CreatedAt time.Time `yaml:"created_at" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("decimal_string", func(fl validator.FieldLevel) bool {
		_, err := decimal.NewFromString(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	return v
}

// Validate checks every record and reports all problems at once.
func (d Document) Validate() error {
	return validationError(validate.Struct(d), ErrInvalidDocument)
}

// ValidateRecord checks a single Category, Obligation or Goal, such as one
// built from command-line flags.
func ValidateRecord(rec any) error {
	return validationError(validate.Struct(rec), ErrInvalidRecord)
}

func validationError(err error, sentinel error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, describe(fe)))
	}
	return fmt.Errorf("%w: %s", sentinel, strings.Join(msgs, "; "))
}

var (
	// ErrInvalidDocument is returned when a document fails validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidRecord is returned when a single record fails validation.
	ErrInvalidRecord = errors.New("invalid input")
)

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "positive_decimal":
		return fmt.Sprintf("must be a positive amount, got %q", fe.Value())
	case "decimal_string":
		return fmt.Sprintf("must be an amount, got %q", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "datetime":
		return fmt.Sprintf("must be a YYYY-MM-DD date, got %q", fe.Value())
	case "ulid":
		return fmt.Sprintf("must be a ULID, got %q", fe.Value())
	default:
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
}

// Decode reads and validates a YAML document. Unknown fields are rejected.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		return doc, fmt.Errorf("parsing yaml: %w", err)
	}
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}
	return doc, doc.Validate()
}

// Encode writes a document as YAML.
func Encode(w io.Writer, doc Document) error {
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
