package gamedata

// Neighbor bits of the 4-bit autotile mask.
const (
	MaskNorth = 1
	MaskWest  = 2
	MaskEast  = 4
	MaskSouth = 8
)

// tileVariants maps each mask to the floor tile variant index.
var tileVariants = [16]int{
	0:  15,
	1:  9,
	2:  8,
	3:  0,
	4:  13,
	5:  1,
	6:  10,
	7:  6,
	8:  12,
	9:  11,
	10: 4,
	11: 7,
	12: 5,
	13: 2,
	14: 3,
	15: 14,
}

// TileVariant returns the variant for a mask. Only the low four bits are
// used.
func TileVariant(mask int) int {
	return tileVariants[mask&0xF]
}

// Mask builds the autotile mask from neighbor presence.
func Mask(north, west, east, south bool) int {
	mask := 0
	if north {
		mask |= MaskNorth
	}
	if west {
		mask |= MaskWest
	}
	if east {
		mask |= MaskEast
	}
	if south {
		mask |= MaskSouth
	}
	return mask
}

// VariantMask is the inverse of TileVariant. Unknown variants report an
// isolated tile.
func VariantMask(variant int) int {
	for mask, v := range tileVariants {
		if v == variant {
			return mask
		}
	}
	return 0
}
