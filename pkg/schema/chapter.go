package schema

// CharacterList is the structured result of character extraction.
type CharacterList struct {
	Characters []string `json:"characters" jsonschema_description:"Proper names of people appearing in the chapter, no titles or descriptions"`
}

// LocationList is the structured result of location extraction.
type LocationList struct {
	Locations []string `json:"locations" jsonschema_description:"Specific named places: cities, buildings, rooms, geographic features"`
}

// PointOfView is the structured result of narrative POV analysis.
type PointOfView struct {
	POV []string `json:"pov" jsonschema_description:"Narrative point of view, e.g. First Person or Third Person Limited"`
}

// ChapterMetadata is the structured result of chapter analysis.
type ChapterMetadata struct {
	Sentiment          string   `json:"sentiment" jsonschema:"enum=positive,enum=negative,enum=neutral" jsonschema_description:"Overall emotional sentiment of the chapter"`
	Tone               string   `json:"tone" jsonschema_description:"Brief description of the chapter's tone"`
	ReadingTimeMinutes int      `json:"reading_time_minutes" jsonschema_description:"Estimated reading time in minutes"`
	Complexity         string   `json:"complexity" jsonschema:"enum=simple,enum=moderate,enum=complex" jsonschema_description:"Prose complexity classification"`
	Tropes             []string `json:"tropes" jsonschema_description:"Narrative tropes present in the chapter"`
}
