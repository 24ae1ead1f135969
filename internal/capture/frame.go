package capture

import (
	"errors"

	"gocv.io/x/gocv"
)

// JPEGQuality is used for frames sent to browsers and to the landmark service.
const JPEGQuality = 80

// Mirror flips mat around the vertical axis in place.
func Mirror(mat *gocv.Mat) {
	gocv.Flip(*mat, mat, 1)
}

// EncodeJPEG returns the JPEG bytes of mat.
func EncodeJPEG(mat *gocv.Mat) ([]byte, error) {
	if mat == nil || mat.Empty() {
		return nil, errors.New("cannot encode empty frame")
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *mat, []int{int(gocv.IMWriteJpegQuality), JPEGQuality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
