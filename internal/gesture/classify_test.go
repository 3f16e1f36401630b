package gesture

import (
	"testing"

	"github.com/desertthunder/swipearr/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		r    Release
		want models.SwipeDirection
	}{
		{"drag right", Release{MX: 150, VX: 0.1}, models.SwipeRight},
		{"drag left", Release{MX: -150}, models.SwipeLeft},
		{"flick down", Release{MY: 150, VY: 0.6}, models.SwipeDown},
		{"below thresholds", Release{MX: 30, MY: 10}, models.SwipeNone},
		{"slow drag down", Release{MY: 150, VY: 0.2}, models.SwipeNone},
		{"flick right", Release{MX: 40, VX: 0.8, DX: 1}, models.SwipeRight},
		{"flick left", Release{MX: -40, VX: -0.8, DX: -1}, models.SwipeLeft},
		{"down preempts right", Release{MX: 200, MY: 150, VY: 0.7}, models.SwipeDown},
		{"right flick against net left", Release{MX: -40, VX: 0.8, DX: 1}, models.SwipeNone},
		{"exact threshold", Release{MX: 100}, models.SwipeNone},
		{"upward drag", Release{MY: -200, VY: 0.9}, models.SwipeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.r))
		})
	}
}

func TestExitPose(t *testing.T) {
	assert.Equal(t, Pose{X: ExitDistance, Rotate: 50, Scale: 0.8}, ExitPose(models.SwipeRight))
	assert.Equal(t, Pose{X: -ExitDistance, Rotate: -50, Scale: 0.8}, ExitPose(models.SwipeLeft))
	assert.Equal(t, Pose{Y: ExitDistance, Scale: 0.8}, ExitPose(models.SwipeDown))
}
