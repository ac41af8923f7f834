package capability

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

const (
	ToolFindProvider      = "find_provider"
	ToolListAvailability  = "list_availability"
	ToolCreateBooking     = "create_booking"
	ToolRescheduleBooking = "reschedule_booking"
	ToolCancelBooking     = "cancel_booking"
)

// Request is one decoded capability invocation.
type Request interface {
	Tool() string
}

type FindProviderRequest struct {
	Name      string `mapstructure:"name" validate:"max=120"`
	Specialty string `mapstructure:"specialty" validate:"max=120"`
}

type ListAvailabilityRequest struct {
	Provider string `mapstructure:"provider" validate:"required,max=120"`
	Date     string `mapstructure:"date" validate:"required,max=40"`
	Period   string `mapstructure:"period" validate:"max=20"`
}

type CreateBookingRequest struct {
	Provider    string `mapstructure:"provider" validate:"required,max=120"`
	PatientName string `mapstructure:"patient_name" validate:"required,max=120"`
	Date        string `mapstructure:"date" validate:"required,max=40"`
	Time        string `mapstructure:"time" validate:"required,max=20"`
	Contact     string `mapstructure:"contact" validate:"required,max=32"`
}

type RescheduleBookingRequest struct {
	PatientName string `mapstructure:"patient_name" validate:"required,max=120"`
	Provider    string `mapstructure:"provider" validate:"required,max=120"`
	OldDate     string `mapstructure:"old_date" validate:"required,max=40"`
	NewDate     string `mapstructure:"new_date" validate:"max=40"`
	NewTime     string `mapstructure:"new_time" validate:"max=20"`
}

type CancelBookingRequest struct {
	Provider    string `mapstructure:"provider" validate:"required,max=120"`
	PatientName string `mapstructure:"patient_name" validate:"required,max=120"`
	Date        string `mapstructure:"date" validate:"required,max=40"`
}

func (FindProviderRequest) Tool() string      { return ToolFindProvider }
func (ListAvailabilityRequest) Tool() string  { return ToolListAvailability }
func (CreateBookingRequest) Tool() string     { return ToolCreateBooking }
func (RescheduleBookingRequest) Tool() string { return ToolRescheduleBooking }
func (CancelBookingRequest) Tool() string     { return ToolCancelBooking }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode maps raw tool arguments onto the request variant named by tool.
// Unknown tools and shape failures are InvalidInput.
func Decode(tool string, args map[string]any) (Request, error) {
	var target Request
	switch tool {
	case ToolFindProvider:
		target = &FindProviderRequest{}
	case ToolListAvailability:
		target = &ListAvailabilityRequest{}
	case ToolCreateBooking:
		target = &CreateBookingRequest{}
	case ToolRescheduleBooking:
		target = &RescheduleBookingRequest{}
	case ToolCancelBooking:
		target = &CancelBookingRequest{}
	default:
		return nil, fmt.Errorf("%w: unknown tool %q", contractx.ErrInvalidInput, tool)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       trimStrings,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrInvalidInput, err)
	}
	if err := dec.Decode(args); err != nil {
		return nil, fmt.Errorf("%w: %s arguments: %v", contractx.ErrInvalidInput, tool, err)
	}
	if err := validate.Struct(target); err != nil {
		return nil, fmt.Errorf("%w: %s", contractx.ErrInvalidInput, describeValidation(err))
	}

	switch r := target.(type) {
	case *FindProviderRequest:
		return *r, nil
	case *ListAvailabilityRequest:
		return *r, nil
	case *CreateBookingRequest:
		return *r, nil
	case *RescheduleBookingRequest:
		return *r, nil
	case *CancelBookingRequest:
		return *r, nil
	}
	return target, nil
}

func trimStrings(from, to reflect.Kind, data any) (any, error) {
	if from == reflect.String && to == reflect.String {
		return strings.TrimSpace(data.(string)), nil
	}
	return data, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fieldName(fe.StructField())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, name+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is longer than %s characters", name, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", name, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// fieldName turns PatientName into patient_name to match the tool schema.
func fieldName(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
