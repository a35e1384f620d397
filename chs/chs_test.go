package chs

import "testing"

func TestRoundTrip(t *testing.T) {
	geom := Geometry{Cylinders: 77, Heads: 2, Sectors: 30}
	for c := uint16(0); c < geom.Cylinders; c += 11 {
		for h := uint8(0); h < geom.Heads; h++ {
			for s := uint8(0); s < geom.Sectors; s += 7 {
				want := New(c, h, s)
				lba, err := want.ToLBA(geom)
				if err != nil {
					t.Fatalf("ToLBA(%v): %v", want, err)
				}
				got, err := FromLBA(lba, geom)
				if err != nil {
					t.Fatalf("FromLBA(%d): %v", lba, err)
				}
				if got != want {
					t.Errorf("round trip %v -> %d -> %v", want, lba, got)
				}
			}
		}
	}
}

func TestPackedRoundTrip(t *testing.T) {
	want := New(0x1234, 0x56, 0x78)
	got := FromPacked(want.Packed())
	if got != want {
		t.Errorf("Packed round trip: got %v want %v", got, want)
	}
}

func TestToLBAStrictBound(t *testing.T) {
	geom := Geometry{Cylinders: 77, Heads: 2, Sectors: 30}
	cases := []CHS{
		{C: 77, H: 0, S: 0},
		{C: 0, H: 2, S: 0},
		{C: 0, H: 0, S: 30},
	}
	for _, c := range cases {
		if _, err := c.ToLBA(geom); err == nil {
			t.Errorf("ToLBA(%v) should have failed against %v", c, geom)
		}
	}
}

func TestFromLBABound(t *testing.T) {
	geom := Geometry{Cylinders: 77, Heads: 2, Sectors: 30}
	if _, err := FromLBA(geom.MaxLBA(), geom); err != nil {
		t.Errorf("FromLBA(max_lba) should succeed: %v", err)
	}
	if _, err := FromLBA(geom.MaxLBA()+1, geom); err == nil {
		t.Errorf("FromLBA(max_lba+1) should fail")
	}
}

func TestSeekExample(t *testing.T) {
	geom := Geometry{Cylinders: 77, Heads: 2, Sectors: 30}
	c := New(5, 1, 10)
	lba, err := c.ToLBA(geom)
	if err != nil {
		t.Fatalf("ToLBA: %v", err)
	}
	if lba != uint32((5*2+1)*30+10) {
		t.Errorf("lba = %d, want %d", lba, (5*2+1)*30+10)
	}
}
