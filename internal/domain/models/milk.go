package models

import "time"

// MilkPeriod is the milking session of the day.
type MilkPeriod string

const (
	MilkMorning MilkPeriod = "Morning"
	MilkEvening MilkPeriod = "Evening"
)

// Valid reports whether p is a known session period.
func (p MilkPeriod) Valid() bool {
	return p == MilkMorning || p == MilkEvening
}

// Animal is a milking animal identified by its ear tag.
type Animal struct {
	ID        string    `bson:"_id" json:"id"`
	AnimalTag string    `bson:"animal_tag" json:"animalTag"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// MilkRecord groups the sessions of one animal for one day.
type MilkRecord struct {
	ID        string    `bson:"_id" json:"id"`
	AnimalID  string    `bson:"animal_id" json:"animalId"`
	AnimalTag string    `bson:"animal_tag" json:"animalTag"`
	Date      time.Time `bson:"date" json:"date"`
}

// MilkSession is one recorded quantity for (record, period). The animal tag
// and the day are denormalized from the record so windows can be queried directly.
type MilkSession struct {
	ID        string     `bson:"_id" json:"id"`
	RecordID  string     `bson:"record_id" json:"recordId"`
	AnimalID  string     `bson:"animal_id" json:"animalId"`
	AnimalTag string     `bson:"animal_tag" json:"animalTag"`
	Date      time.Time  `bson:"date" json:"date"`
	Period    MilkPeriod `bson:"period" json:"period"`
	Quantity  float64    `bson:"quantity" json:"quantity"`
	Time      time.Time  `bson:"time" json:"time"`
	Recorder  string     `bson:"recorder" json:"recorder"`
}

// MilkEntry is the input of a milk recording.
type MilkEntry struct {
	AnimalID  string     `json:"animalId"`
	AnimalTag string     `json:"animalTag"`
	Period    MilkPeriod `json:"period"`
	Quantity  float64    `json:"quantity"`
}
