package models

type Specialty struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
}

type City struct {
	ID          string `bson:"_id" json:"id"`
	Name        string `bson:"name" json:"name"`
	CountryCode string `bson:"countryCode" json:"countryCode"`
}
