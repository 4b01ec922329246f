package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "campaign not found with ID: 7", (&ErrNotFound{Entity: "campaign", ID: "7"}).Error())
	assert.Equal(t, CampaignNotFoundMessage, (&ErrCampaignNotFound{Key: "spring"}).Error())
	assert.Equal(t, "validation error: title is required", NewValidationError("title is required").Error())
	assert.Contains(t, (&ErrVersionConflict{CampaignID: 3, Expected: 1, Actual: 2}).Error(), "base version 1, current 2")
	assert.Equal(t, "이미 사용 중인 단축 주소입니다.", ErrSlugTaken.Error())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&ErrNotFound{Entity: "user"}))
	assert.True(t, IsNotFound(fmt.Errorf("get: %w", &ErrCampaignNotFound{Key: "x"})))
	assert.True(t, IsNotFound(&ErrSettingNotFound{Key: "googleCx"}))
	assert.True(t, IsNotFound(&ErrUserNotFound{Message: "User not found"}))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.False(t, IsNotFound(ErrSlugTaken))
}
