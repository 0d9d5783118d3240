package export

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affectlab/gazeflow/pkg/signal"
)

func TestBuild_NoData(t *testing.T) {
	_, err := Build(nil, nil, nil)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestBuild_HeartRateJoinsNearestRow(t *testing.T) {
	gaze := []signal.GazePoint{{T: 1000, X: 10, Y: 20, AOI: "p1"}}
	hr := []signal.HeartRateSample{{T: 1300, BPM: 72}}

	table, err := Build(gaze, nil, hr)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1, "samples within tolerance must merge")

	row := table.Rows[0]
	assert.Equal(t, int64(1000), row.Timestamp)
	require.NotNil(t, row.BPM)
	assert.Equal(t, 72, *row.BPM)
	require.NotNil(t, row.GazeX)
	assert.Equal(t, 10, *row.GazeX)
}

func TestBuild_HeartRateBeyondToleranceGetsOwnRow(t *testing.T) {
	gaze := []signal.GazePoint{{T: 1000, X: 10, Y: 20, AOI: "p1"}}
	hr := []signal.HeartRateSample{{T: 5000, BPM: 80}}

	table, err := Build(gaze, nil, hr)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, int64(1000), table.Rows[0].Timestamp)
	assert.Nil(t, table.Rows[0].BPM)
	assert.Equal(t, int64(5000), table.Rows[1].Timestamp)
	require.NotNil(t, table.Rows[1].BPM)
	assert.Equal(t, 80, *table.Rows[1].BPM)
	assert.Nil(t, table.Rows[1].GazeX)
}

func TestBuild_NearbyHeartRateSamplesKeepOwnRows(t *testing.T) {
	// Two notifications 300ms apart with no other data: the second must
	// not merge onto the first and overwrite its BPM.
	hr := []signal.HeartRateSample{
		{T: 1000, BPM: 70},
		{T: 1300, BPM: 75},
	}

	table, err := Build(nil, nil, hr)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	require.NotNil(t, table.Rows[0].BPM)
	assert.Equal(t, 70, *table.Rows[0].BPM)
	require.NotNil(t, table.Rows[1].BPM)
	assert.Equal(t, 75, *table.Rows[1].BPM)
}

func TestBuild_SecondHeartRateNearSameGazeRowGetsOwnRow(t *testing.T) {
	gaze := []signal.GazePoint{{T: 1000, X: 10, Y: 20, AOI: "p1"}}
	hr := []signal.HeartRateSample{
		{T: 800, BPM: 70},
		{T: 1200, BPM: 75},
	}

	table, err := Build(gaze, nil, hr)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	// First sample merges onto the gaze row; the second must not
	// displace it
	require.NotNil(t, table.Rows[0].BPM)
	assert.Equal(t, int64(1000), table.Rows[0].Timestamp)
	assert.Equal(t, 70, *table.Rows[0].BPM)
	require.NotNil(t, table.Rows[1].BPM)
	assert.Equal(t, int64(1200), table.Rows[1].Timestamp)
	assert.Equal(t, 75, *table.Rows[1].BPM)
}

func TestBuild_ExactTimestampJoin(t *testing.T) {
	gaze := []signal.GazePoint{{T: 2000, X: 5, Y: 6, AOI: "p1"}}
	inter := []signal.InteractionEvent{
		{T: 2000, Type: signal.InteractionClick},
		{T: 3000, Type: signal.InteractionScroll},
	}

	table, err := Build(gaze, inter, nil)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	assert.True(t, table.Rows[0].Click, "click shares the gaze row at t=2000")
	assert.False(t, table.Rows[0].Scroll)
	assert.True(t, table.Rows[1].Scroll)
	assert.Nil(t, table.Rows[1].GazeX)
}

func TestBuild_RowsSortedByTimestamp(t *testing.T) {
	gaze := []signal.GazePoint{
		{T: 3000, X: 1, Y: 1, AOI: "NONE"},
		{T: 1000, X: 2, Y: 2, AOI: "NONE"},
		{T: 2000, X: 3, Y: 3, AOI: "NONE"},
	}
	table, err := Build(gaze, nil, nil)
	require.NoError(t, err)

	var prev int64 = -1
	for _, r := range table.Rows {
		assert.Greater(t, r.Timestamp, prev)
		prev = r.Timestamp
	}
}

func TestWriteCSV_Format(t *testing.T) {
	gaze := []signal.GazePoint{{T: 1000, X: 10, Y: 20, AOI: "p1"}}
	inter := []signal.InteractionEvent{{T: 1000, Type: signal.InteractionClick}}
	hr := []signal.HeartRateSample{{T: 1300, BPM: 72}}

	table, err := Build(gaze, inter, hr)
	require.NoError(t, err)

	data, err := table.Bytes()
	require.NoError(t, err)

	want := "Timestamp,GazeX,GazeY,AOI_ID,Click,Scroll,BPM\n" +
		"1000,10,20,p1,1,,72\n"
	assert.Equal(t, want, string(data))
}

func TestParseCSV_RoundTrip(t *testing.T) {
	gaze := []signal.GazePoint{
		{T: 1000, X: 10, Y: 20, AOI: "p1"},
		{T: 1200, X: 11, Y: 21, AOI: "NONE"},
	}
	inter := []signal.InteractionEvent{{T: 1500, Type: signal.InteractionScroll}}
	hr := []signal.HeartRateSample{{T: 5000, BPM: 68}}

	table, err := Build(gaze, inter, hr)
	require.NoError(t, err)
	data, err := table.Bytes()
	require.NoError(t, err)

	g2, i2, h2, err := ParseCSV(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, gaze, g2)
	assert.Equal(t, inter, i2)
	assert.Equal(t, hr, h2)
}

func TestParseCSV_RejectsBadHeader(t *testing.T) {
	_, _, _, err := ParseCSV(strings.NewReader("Nope,Header\n"))
	require.Error(t, err)
}
