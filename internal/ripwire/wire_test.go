package ripwire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := []Entry{
		{Destination: 1, Metric: 0},
		{Destination: 5, Metric: 3},
		{Destination: 9, Metric: 16},
	}

	payload := Encode(7, entries)
	assert.Equal(t, len(payload), headerSize+entrySize*len(entries))

	got := Decode(payload)
	assert.Equal(t, got.Status, Accepted)
	assert.Equal(t, got.Sender, uint16(7))
	if diff := cmp.Diff(entries, got.Entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeEmptyEntries(t *testing.T) {
	payload := Encode(3, nil)
	assert.Equal(t, len(payload), headerSize)

	got := Decode(payload)
	assert.Equal(t, got.Status, Accepted)
	assert.Equal(t, got.Sender, uint16(3))
	assert.Equal(t, len(got.Entries), 0)
}

func TestDecodeMalformedHeader(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3} {
		got := Decode(make([]byte, n))
		assert.Equal(t, got.Status, MalformedHeader)
	}
}

func TestDecodeWrongCommand(t *testing.T) {
	payload := Encode(1, nil)
	payload[0] = 9
	got := Decode(payload)
	assert.Equal(t, got.Status, WrongCommand)
}

func TestDecodeWrongVersion(t *testing.T) {
	payload := Encode(1, nil)
	payload[1] = 1
	got := Decode(payload)
	assert.Equal(t, got.Status, WrongVersion)
}

func TestDecodeSkipsBadAFI(t *testing.T) {
	payload := Encode(1, []Entry{{Destination: 4, Metric: 2}})
	off := headerSize
	payload[off] = 0
	payload[off+1] = 9 // wrong AFI

	got := Decode(payload)
	assert.Equal(t, got.Status, Accepted)
	assert.Equal(t, len(got.Entries), 0)
}

func TestDecodeSkipsOutOfRangeMetric(t *testing.T) {
	payload := Encode(1, []Entry{{Destination: 4, Metric: 2}})
	off := headerSize
	payload[off+19] = 17 // above MaxMetric

	got := Decode(payload)
	assert.Equal(t, got.Status, Accepted)
	assert.Equal(t, len(got.Entries), 0)
}

func TestDecodeAcceptsMaxMetric(t *testing.T) {
	payload := Encode(1, []Entry{{Destination: 4, Metric: MaxMetric}})
	got := Decode(payload)
	assert.Equal(t, got.Status, Accepted)
	assert.Equal(t, len(got.Entries), 1)
	assert.Equal(t, got.Entries[0].Metric, uint8(MaxMetric))
}

func TestDecodeTrailingPartialEntryIgnored(t *testing.T) {
	payload := Encode(1, []Entry{{Destination: 4, Metric: 2}})
	payload = append(payload, 0, 0, 0) // short trailing garbage
	got := Decode(payload)
	assert.Equal(t, got.Status, Accepted)
	assert.Equal(t, len(got.Entries), 1)
}
