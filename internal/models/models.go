// Package models contains data structures for the application
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// UnknownDepartment is stored when a row carries no department
const UnknownDepartment = "Chưa xác định"

// Slot identifies one of the four daily punches
type Slot int

const (
	SlotMorningIn    Slot = iota // S1
	SlotMorningOut               // S2
	SlotAfternoonIn              // C1
	SlotAfternoonOut             // C2
)

// SlotCount is the number of punches recorded per day
const SlotCount = 4

var slotNames = [SlotCount]string{"S1", "S2", "C1", "C2"}

// Slots lists every slot in column order
var Slots = [SlotCount]Slot{SlotMorningIn, SlotMorningOut, SlotAfternoonIn, SlotAfternoonOut}

func (s Slot) String() string {
	if s < 0 || int(s) >= SlotCount {
		return "slot(" + strconv.Itoa(int(s)) + ")"
	}
	return slotNames[s]
}

// IsAfternoon reports whether the slot belongs to the afternoon half-day
func (s Slot) IsAfternoon() bool {
	return s == SlotAfternoonIn || s == SlotAfternoonOut
}

// ParseSlot maps a column name (S1, s2, C1 ...) to its slot
func ParseSlot(name string) (Slot, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range slotNames {
		if n == name {
			return Slot(i), true
		}
	}
	return 0, false
}

type fieldMask uint8

const maskDepartment fieldMask = 1 << SlotCount

func slotMask(s Slot) fieldMask { return 1 << uint(s) }

const maskAll = maskDepartment | (1<<SlotCount - 1)

// AttendanceRecord is one employee's punches for one day
type AttendanceRecord struct {
	ID              string
	EmployeeName    string
	Department      string
	Date            Date
	Slots           [SlotCount]Clock
	ReasonMorning   string
	ReasonAfternoon string

	// present marks the optional columns an import row actually carried
	present fieldMask
}

// RecordID derives the storage key for an employee and day
func RecordID(employeeName string, date Date) string {
	return employeeName + "_" + date.Key()
}

// NewAttendanceRecord creates a record for an employee and day with no punches
func NewAttendanceRecord(employeeName string, date Date) AttendanceRecord {
	return AttendanceRecord{
		ID:           RecordID(employeeName, date),
		EmployeeName: employeeName,
		Department:   UnknownDepartment,
		Date:         date,
	}
}

// SetSlot stores a punch and marks the column as provided
func (r *AttendanceRecord) SetSlot(s Slot, c Clock) {
	r.Slots[s] = c
	r.present |= slotMask(s)
}

// SetDepartment stores the department and marks the column as provided
func (r *AttendanceRecord) SetDepartment(name string) {
	r.Department = name
	r.present |= maskDepartment
}

func (r AttendanceRecord) HasSlot(s Slot) bool { return r.present&slotMask(s) != 0 }

func (r AttendanceRecord) HasDepartment() bool { return r.present&maskDepartment != 0 }

// MarkComplete flags every field as provided. Records read back from a store are complete.
func (r *AttendanceRecord) MarkComplete() {
	r.present = maskAll
}

// Slot returns the punch for a slot
func (r AttendanceRecord) Slot(s Slot) Clock {
	return r.Slots[s]
}

// Reason returns the merged annotation for one half-day
func (r AttendanceRecord) Reason(field ReasonField) string {
	if field == ReasonAfternoon {
		return r.ReasonAfternoon
	}
	return r.ReasonMorning
}

// Merge applies the fields an incoming record provides on top of a stored one.
// Fields the incoming record did not carry keep their stored values.
func Merge(stored, incoming AttendanceRecord) AttendanceRecord {
	out := stored
	out.ID = incoming.ID
	out.EmployeeName = incoming.EmployeeName
	out.Date = incoming.Date
	if incoming.HasDepartment() || out.Department == "" {
		out.Department = incoming.Department
	}
	for _, s := range Slots {
		if incoming.HasSlot(s) {
			out.Slots[s] = incoming.Slots[s]
		}
	}
	out.MarkComplete()
	return out
}

type recordJSON struct {
	ID              string `json:"id"`
	EmployeeName    string `json:"employeeName"`
	Department      string `json:"departmentName"`
	Date            Date   `json:"date"`
	S1              Clock  `json:"S1"`
	S2              Clock  `json:"S2"`
	C1              Clock  `json:"C1"`
	C2              Clock  `json:"C2"`
	ReasonMorning   string `json:"reasonMorning,omitempty"`
	ReasonAfternoon string `json:"reasonAfternoon,omitempty"`
}

func (r AttendanceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:              r.ID,
		EmployeeName:    r.EmployeeName,
		Department:      r.Department,
		Date:            r.Date,
		S1:              r.Slots[SlotMorningIn],
		S2:              r.Slots[SlotMorningOut],
		C1:              r.Slots[SlotAfternoonIn],
		C2:              r.Slots[SlotAfternoonOut],
		ReasonMorning:   r.ReasonMorning,
		ReasonAfternoon: r.ReasonAfternoon,
	})
}

func (r *AttendanceRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = AttendanceRecord{
		ID:              raw.ID,
		EmployeeName:    raw.EmployeeName,
		Department:      raw.Department,
		Date:            raw.Date,
		Slots:           [SlotCount]Clock{raw.S1, raw.S2, raw.C1, raw.C2},
		ReasonMorning:   raw.ReasonMorning,
		ReasonAfternoon: raw.ReasonAfternoon,
	}
	r.MarkComplete()
	return nil
}

// ReasonField names one of the two annotations kept per record
type ReasonField string

const (
	ReasonMorning   ReasonField = "morning"
	ReasonAfternoon ReasonField = "afternoon"
)

// Reason is the free-text explanation attached to a record. Nil fields were never set.
type Reason struct {
	Morning   *string `json:"morning,omitempty"`
	Afternoon *string `json:"afternoon,omitempty"`
}

// Get returns the text for a field, empty when unset
func (r Reason) Get(field ReasonField) string {
	var p *string
	if field == ReasonAfternoon {
		p = r.Afternoon
	} else {
		p = r.Morning
	}
	if p == nil {
		return ""
	}
	return *p
}

// With returns a copy of the reason with one field replaced
func (r Reason) With(field ReasonField, text string) Reason {
	if field == ReasonAfternoon {
		r.Afternoon = &text
	} else {
		r.Morning = &text
	}
	return r
}

// Merge overlays the fields set on other
func (r Reason) Merge(other Reason) Reason {
	if other.Morning != nil {
		r.Morning = other.Morning
	}
	if other.Afternoon != nil {
		r.Afternoon = other.Afternoon
	}
	return r
}

// ReasonSet holds reasons keyed by record id
type ReasonSet map[string]Reason
