package model

import "github.com/hpamigo/amigoemu/chs"

func init() {
	Register(Fixed{
		Name:            "9895",
		Identify:        [2]byte{0x00, 0x81},
		Geometry:        chs.Geometry{Cylinders: 77, Heads: 2, Sectors: 30},
		Units:           2,
		IgnoreFmtFiller: false,
	})
}
