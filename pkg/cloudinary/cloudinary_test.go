package cloudinary

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRecordingIDSanitisesName(t *testing.T) {
	require.Equal(t, "answer-q-12-0f1e2d3c", recordingID("uploads/Answer Q#12.webm", "0f1e2d3c-aaaa"))
	require.Equal(t, "take-2-0f1e2d3c", recordingID(`C:\mic\Take  2.ogg`, "0f1e2d3c"))
	require.Equal(t, "recording-abc", recordingID("???.mp3", "abc"))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestNewTrimsFolder(t *testing.T) {
	store, err := New(Config{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "/gema/audio/"}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "gema/audio", store.folder)
}
