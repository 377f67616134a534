package service

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"image/jpeg"
	"image/png"

	"pulmoscan/logger"
	"pulmoscan/storage"
	"pulmoscan/util/common"
	"pulmoscan/util/random"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	// MaxUploadSize is the upload ceiling, enforced at the serving boundary.
	MaxUploadSize = 16 << 20

	// ThumbnailMaxDim bounds both dimensions of the display copy.
	ThumbnailMaxDim = 400

	timestampLayout = "20060102_150405"
	resultLayout    = "2006-01-02 15:04:05"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".dcm":  true,
}

// Classifier produces the normal/pneumonia probability split for an X-ray
// image. A real inference service plugs in behind this boundary without
// touching the rest of the pipeline.
type Classifier interface {
	Classify(image []byte) (normal, pneumonia float64)
}

// SimulatedClassifier is the placeholder model: it draws the normal
// probability uniformly from [20, 95) and ignores the image bytes.
type SimulatedClassifier struct{}

func (SimulatedClassifier) Classify(_ []byte) (float64, float64) {
	normal := round1(random.Uniform(20, 95))
	return normal, round1(100 - normal)
}

// AnalysisService runs the upload pipeline: store the raw image, derive a
// classification, record it in the history log and produce a display
// thumbnail.
type AnalysisService struct {
	uploadDir  string
	displayDir string
	history    *storage.HistoryStore
	classifier Classifier
}

func NewAnalysisService(uploadDir, displayDir string, history *storage.HistoryStore, classifier Classifier) *AnalysisService {
	return &AnalysisService{
		uploadDir:  uploadDir,
		displayDir: displayDir,
		history:    history,
		classifier: classifier,
	}
}

// AllowedFile reports whether the filename carries an accepted extension.
// The check is case-insensitive.
func AllowedFile(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SanitizeFilename strips directory components and replaces characters
// outside [A-Za-z0-9._-] so the name is safe to join into the upload folder.
func SanitizeFilename(filename string) string {
	base := filepath.Base(filepath.ToSlash(filename))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := strings.Trim(b.String(), "._")
	if sanitized == "" {
		sanitized = "upload"
	}
	return sanitized
}

// Submit runs the full pipeline for one upload on behalf of the given
// session identity and returns the derived result, whose Filename field
// carries the stored name.
//
// There is no partial-failure rollback: a thumbnail failure leaves the raw
// upload and the already-recorded history entry in place, and the error
// unwraps to common.ErrImageDecode so the caller can surface a generic
// processing notice.
func (s *AnalysisService) Submit(fileBytes []byte, originalFilename, authorName, authorID string) (*storage.AnalysisResult, error) {
	if !AllowedFile(originalFilename) {
		return nil, common.ErrUnsupportedFileType
	}

	now := time.Now()
	storedName := fmt.Sprintf("%s_%s", now.Format(timestampLayout), SanitizeFilename(originalFilename))

	if err := os.MkdirAll(s.uploadDir, 0o750); err != nil {
		return nil, err
	}
	uploadPath := filepath.Join(s.uploadDir, storedName)
	if err := os.WriteFile(uploadPath, fileBytes, 0o640); err != nil {
		return nil, err
	}
	logger.Debugf("stored upload %s (%s)", storedName, common.FormatSize(int64(len(fileBytes))))

	normal, pneumonia := s.classifier.Classify(fileBytes)
	result := &storage.AnalysisResult{
		Normal:       normal,
		Pneumonia:    pneumonia,
		HasPneumonia: pneumonia > 50,
		Confidence:   math.Max(normal, pneumonia),
		Severity:     severityFor(pneumonia),
		Timestamp:    now.Format(resultLayout),
		Filename:     storedName,
	}

	entry := storage.HistoryEntry{
		ID:     uuid.NewString(),
		User:   authorName,
		UserID: authorID,
		Result: *result,
	}
	if err := s.history.Record(entry); err != nil {
		return nil, err
	}

	if err := s.writeThumbnail(fileBytes, storedName); err != nil {
		logger.Warningf("error processing image %s: %v", storedName, err)
		return nil, fmt.Errorf("%w: %v", common.ErrImageDecode, err)
	}

	logger.Infof("analysis recorded for %s: pneumonia %.1f%% (%s)", storedName, pneumonia, result.Severity)
	return result, nil
}

// severityFor maps the pneumonia probability to a risk tier. The thresholds
// are strict greater-than: 80 is still Moderate, 50 is still Low.
func severityFor(pneumonia float64) string {
	switch {
	case pneumonia > 80:
		return storage.SeverityHigh
	case pneumonia > 50:
		return storage.SeverityModerate
	default:
		return storage.SeverityLow
	}
}

// DisplayName returns the filename of the display copy for a stored upload.
func DisplayName(storedName string) string {
	return "display_" + storedName
}

// writeThumbnail decodes the uploaded bytes, downscales so neither dimension
// exceeds ThumbnailMaxDim while preserving aspect ratio, and re-encodes the
// copy into the display folder. Images already within bounds are re-encoded
// as-is.
func (s *AnalysisService) writeThumbnail(fileBytes []byte, storedName string) error {
	src, _, err := image.Decode(bytes.NewReader(fileBytes))
	if err != nil {
		return err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > ThumbnailMaxDim || h > ThumbnailMaxDim {
		scale := float64(ThumbnailMaxDim) / float64(max(w, h))
		dw := max(int(float64(w)*scale), 1)
		dh := max(int(float64(h)*scale), 1)
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	if err := os.MkdirAll(s.displayDir, 0o750); err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(s.displayDir, DisplayName(storedName)))
	if err != nil {
		return err
	}
	defer out.Close()

	if strings.EqualFold(filepath.Ext(storedName), ".png") {
		return png.Encode(out, src)
	}
	return jpeg.Encode(out, src, &jpeg.Options{Quality: 90})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
