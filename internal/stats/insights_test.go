package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statsbasket/internal/domain"
)

func TestGenerateInsights(t *testing.T) {
	log := &eventLog{}
	log.add(domain.KindThreePointMade, 1, domain.ZoneCornerLeft, 1).
		add(domain.KindThreePointMade, 1, domain.ZoneCornerLeft, 1).
		add(domain.KindThreePointMade, 1, domain.ZoneCornerLeft, 1).
		add(domain.KindThreePointMiss, 1, domain.ZoneCornerLeft, 1).
		add(domain.KindTwoPointMade, 2, domain.ZonePaint, 2).
		add(domain.KindTwoPointMiss, 2, domain.ZonePaint, 2).
		add(domain.KindTwoPointMiss, 2, domain.ZonePaint, 2).
		add(domain.KindTwoPointMiss, 2, domain.ZonePaint, 2).
		add(domain.KindTwoPointMiss, 2, domain.ZonePaint, 2)

	insights := GenerateInsights(AnalyzeShotZones(log.events), DetectHotStreaks(log.events, testRoster))

	require.Len(t, insights.Critical, 1)
	assert.Equal(t, "Cold from Paint: 20.0% on 5 attempts", insights.Critical[0].Message)
	assert.Equal(t, "AVOID shots from Paint. Look for better shot selection.", insights.Critical[0].Action)

	require.Len(t, insights.Opportunities, 3)
	assert.Equal(t, "Left Corner is on fire: 75.0% on 4 attempts", insights.Opportunities[0].Message)
	assert.Equal(t, "EXPLOIT Left Corner. Run plays into this zone.", insights.Opportunities[0].Action)
	assert.Equal(t, "#23 Dominguez is on a hot streak: 3/4", insights.Opportunities[1].Message)
	assert.Equal(t, "FEED #23. Get them more shots.", insights.Opportunities[1].Action)
	assert.Equal(t, "Left Corner is our best zone (75.0%) but only 4 attempts", insights.Opportunities[2].Message)

	assert.NotNil(t, insights.Tactical)
	assert.Empty(t, insights.Tactical)
}

func TestGenerateInsights_NothingToSay(t *testing.T) {
	insights := GenerateInsights(AnalyzeShotZones(nil), DetectHotStreaks(nil, nil))

	assert.NotNil(t, insights.Critical)
	assert.NotNil(t, insights.Opportunities)
	assert.Empty(t, insights.Critical)
	assert.Empty(t, insights.Opportunities)
}

func TestGenerateInsights_WellUsedBestZoneIsNotFlagged(t *testing.T) {
	events := shots(3, domain.ZoneWingRight,
		domain.KindTwoPointMade, domain.KindTwoPointMiss, domain.KindTwoPointMade,
		domain.KindTwoPointMiss, domain.KindTwoPointMade, domain.KindTwoPointMiss)

	insights := GenerateInsights(AnalyzeShotZones(events), StreakReport{})

	assert.Empty(t, insights.Critical)
	assert.Empty(t, insights.Opportunities, "50% on 6 attempts is neither hot nor underused")
}
