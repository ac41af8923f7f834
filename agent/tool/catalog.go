package tool

import (
	"sort"

	"github.com/cloudwego/eino/schema"

	"github.com/Sampath-yadav/Sahay-Project/agent/capability"
)

type Param struct {
	Name     string
	Desc     string
	Required bool
	Enum     []string
}

// Spec describes one capability to the reasoning service. Reasoner
// implementations translate it into their own tool schema.
type Spec struct {
	Name   string
	Desc   string
	Params []Param
}

var catalog = []Spec{
	{
		Name: capability.ToolFindProvider,
		Desc: "Look up doctors by name or specialty. With no arguments it lists every doctor. " +
			"If the result is ambiguous, ask the user which doctor they meant.",
		Params: []Param{
			{Name: "name", Desc: "Doctor name as the user said it, e.g. \"Dr. Aditya\""},
			{Name: "specialty", Desc: "Medical specialty, e.g. \"cardiology\""},
		},
	},
	{
		Name: capability.ToolListAvailability,
		Desc: "Check a doctor's free appointment slots on a date. Call it first without period to learn which " +
			"parts of the day have openings, then again with the period the user picks to get exact times.",
		Params: []Param{
			{Name: "provider", Desc: "Doctor name or id", Required: true},
			{Name: "date", Desc: "Date as given by the user: today, tomorrow, 23, 23/1/25 or 2025-01-23", Required: true},
			{Name: "period", Desc: "Part of the day", Enum: []string{"morning", "afternoon", "evening"}},
		},
	},
	{
		Name: capability.ToolCreateBooking,
		Desc: "Book an appointment once the user has confirmed doctor, date, time, their name and phone number.",
		Params: []Param{
			{Name: "provider", Desc: "Doctor name or id", Required: true},
			{Name: "patient_name", Desc: "Full name of the patient", Required: true},
			{Name: "date", Desc: "Appointment date", Required: true},
			{Name: "time", Desc: "Slot start time, e.g. 10:30 or 2 pm", Required: true},
			{Name: "contact", Desc: "Patient phone number", Required: true},
		},
	},
	{
		Name: capability.ToolRescheduleBooking,
		Desc: "Move an existing appointment. Call it without new_date and new_time to confirm the booking exists, " +
			"then again with both once the user chooses the new slot.",
		Params: []Param{
			{Name: "patient_name", Desc: "Name the appointment was booked under", Required: true},
			{Name: "provider", Desc: "Doctor name or id", Required: true},
			{Name: "old_date", Desc: "Current appointment date", Required: true},
			{Name: "new_date", Desc: "New appointment date"},
			{Name: "new_time", Desc: "New slot start time"},
		},
	},
	{
		Name: capability.ToolCancelBooking,
		Desc: "Cancel an existing appointment.",
		Params: []Param{
			{Name: "provider", Desc: "Doctor name or id", Required: true},
			{Name: "patient_name", Desc: "Name the appointment was booked under", Required: true},
			{Name: "date", Desc: "Appointment date", Required: true},
		},
	},
}

// Specs returns the capability catalog in a stable order.
func Specs() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Infos renders the catalog as eino tool definitions.
func Infos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(catalog))
	for _, spec := range catalog {
		params := make(map[string]*schema.ParameterInfo, len(spec.Params))
		for _, p := range spec.Params {
			params[p.Name] = &schema.ParameterInfo{
				Type:     schema.String,
				Desc:     p.Desc,
				Enum:     p.Enum,
				Required: p.Required,
			}
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        spec.Name,
			Desc:        spec.Desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}

// Required lists a spec's required parameter names, sorted.
func (s Spec) Required() []string {
	var out []string
	for _, p := range s.Params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	sort.Strings(out)
	return out
}
