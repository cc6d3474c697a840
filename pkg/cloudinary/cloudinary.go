package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrMissingCredentials is returned when any Cloudinary credential is blank.
var ErrMissingCredentials = errors.New("cloudinary credentials must be provided")

// Config locates the Cloudinary account and folder used for recordings.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// RecordingStore keeps speaking answers so the pronunciation assessor can
// fetch them by URL.
type RecordingStore struct {
	client *cloudinary.Cloudinary
	folder string
	now    func() time.Time
	logger zerolog.Logger
}

// New validates cfg and returns a RecordingStore.
func New(cfg Config, logger zerolog.Logger) (*RecordingStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrMissingCredentials
	}

	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}

	return &RecordingStore{
		client: client,
		folder: strings.Trim(cfg.Folder, "/"),
		now:    time.Now,
		logger: logger.With().Str("component", "recording_store").Logger(),
	}, nil
}

// UploadAudio stores one recording and returns its secure URL. Audio lives
// under Cloudinary's video resource type.
func (s *RecordingStore) UploadAudio(ctx context.Context, name string, reader io.Reader) (string, error) {
	now := s.now().UTC()
	params := uploader.UploadParams{
		Folder:         path.Join(s.folder, now.Format("2006/01/02")),
		PublicID:       recordingID(name, uuid.NewString()),
		ResourceType:   "video",
		Tags:           api.CldAPIArray{"daily-challenge", "speaking"},
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("upload recording: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("upload recording: %s", result.Error.Message)
	}

	s.logger.Info().
		Str("public_id", result.PublicID).
		Int("bytes", result.Bytes).
		Msg("speaking recording stored")
	return result.SecureURL, nil
}

// recordingID keeps the letters and digits of the uploaded file's base name
// and appends a unique suffix so retakes never overwrite each other.
func recordingID(name, unique string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(base) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	cleaned := strings.TrimSuffix(b.String(), "-")
	if cleaned == "" || cleaned == "." {
		cleaned = "recording"
	}
	if len(unique) > 8 {
		unique = unique[:8]
	}
	return cleaned + "-" + unique
}
