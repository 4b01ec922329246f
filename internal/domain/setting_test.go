package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrSettingNotFound(t *testing.T) {
	err := error(&ErrSettingNotFound{Key: SettingGoogleCx})
	assert.Equal(t, "setting not found: google_cx", err.Error())

	var notFound *ErrSettingNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, SettingGoogleCx, notFound.Key)
}

func TestUpdateSettingsRequest_PartialDecode(t *testing.T) {
	var req UpdateSettingsRequest
	require.NoError(t, json.Unmarshal([]byte(`{"googleCx":"cx-1"}`), &req))
	assert.Nil(t, req.GoogleAPIKey)
	require.NotNil(t, req.GoogleCx)
	assert.Equal(t, "cx-1", *req.GoogleCx)
}

func TestSystemSettings_JSON(t *testing.T) {
	data, err := json.Marshal(SystemSettings{GoogleAPIKey: "k", GoogleCx: "c"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"googleApiKey":"k","googleCx":"c"}`, string(data))
}
