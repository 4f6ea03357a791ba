package model

// Detection is one line of an image's label file. Coordinates are normalized
// to the image size (YOLO center/width/height).
type Detection struct {
	ID         int64   `json:"id"`
	ImageID    int64   `json:"image_id"`
	ClassID    string  `json:"class_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}
