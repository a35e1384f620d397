package model

import "github.com/hpamigo/amigoemu/chs"

func init() {
	Register(Fixed{
		Name:            "9134b",
		Identify:        [2]byte{0x01, 0x0A},
		Geometry:        chs.Geometry{Cylinders: 306, Heads: 4, Sectors: 31},
		Units:           1,
		IgnoreFmtFiller: true,
	})
}
