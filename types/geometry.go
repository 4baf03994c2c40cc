package types

// Point is a screen coordinate in pixels, origin top-left.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size represents width and height dimensions.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
