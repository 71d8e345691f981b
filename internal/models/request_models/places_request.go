package request_models

// PlacesRelayRequest is the body accepted by the places relay.
type PlacesRelayRequest struct {
	Operation string `json:"operation"`
	Query     string `json:"query,omitempty"`
	PlaceID   string `json:"placeId,omitempty"`
	Fields    string `json:"fields,omitempty"`
}

type PlacePhotoRequest struct {
	PhotoReference string `form:"photoreference" binding:"required"`
	MaxWidth       int    `form:"maxwidth"`
}
