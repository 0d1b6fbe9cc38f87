package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}

	path := filepath.Join(t.TempDir(), "restaurants.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadRestaurantsFromXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"id", "name", "neighborhood", "photograph", "address", "lat", "lng", "cuisine_type", "Monday", "Sunday"},
		{"1", "Mission Chinese Food", "Manhattan", "1", "171 E Broadway", "40.713829", "-73.989667", "Asian", "5:30 pm - 11:00 pm", ""},
		{"2", "Emily", "Brooklyn", "2", "919 Fulton St", "40.683555", "-73.966393", "Pizza", "", "12:00 pm - 10:00 pm"},
		{"2", "Duplicate", "", "", "", "1", "1", "", "", ""},
		{"x", "Bad id", "", "", "", "1", "1", "", "", ""},
		{"3", "No coords", "", "", "", "", "", "", "", ""},
	})

	restaurants, err := readRestaurantsFromXLSX(path)
	require.NoError(t, err)
	require.Len(t, restaurants, 2)

	first := restaurants[0]
	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, "Mission Chinese Food", first.Name)
	assert.Equal(t, 40.713829, first.LatLng.Lat)
	assert.Equal(t, "5:30 pm - 11:00 pm", first.OperatingHours["Monday"])
	assert.NotContains(t, first.OperatingHours, "Sunday")

	assert.Equal(t, "Emily", restaurants[1].Name)
	assert.Equal(t, "12:00 pm - 10:00 pm", restaurants[1].OperatingHours["Sunday"])
}

func TestReadRestaurantsFromXLSX_MissingColumn(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"id", "name", "address"},
		{"1", "Kang Ho Dong Baekjeong", "1 E 32nd St"},
	})

	_, err := readRestaurantsFromXLSX(path)
	assert.ErrorContains(t, err, "lat")
}
