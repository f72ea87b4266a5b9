package analytics

// Band is a rating tier used to color rating cells. Higher values are more severe.
type Band int

const (
	BandUnrated Band = iota
	BandNewbie
	BandPupil
	BandSpecialist
	BandExpert
	BandCandidateMaster
	BandMaster
	BandGrandmaster
)

// bandFloors are the inclusive lower bounds of the rated tiers, highest first.
var bandFloors = []struct {
	floor int
	band  Band
}{
	{floor: 2400, band: BandGrandmaster},
	{floor: 2100, band: BandMaster},
	{floor: 1900, band: BandCandidateMaster},
	{floor: 1600, band: BandExpert},
	{floor: 1400, band: BandSpecialist},
	{floor: 1200, band: BandPupil},
}

// RatingColorBand maps a rating to its tier. A nil rating is unrated; every integer lands in
// exactly one of the seven rated tiers.
func RatingColorBand(rating *int) Band {
	if rating == nil {
		return BandUnrated
	}
	for _, item := range bandFloors {
		if *rating >= item.floor {
			return item.band
		}
	}
	return BandNewbie
}

func (b Band) String() string {
	switch b {
	case BandNewbie:
		return "newbie"
	case BandPupil:
		return "pupil"
	case BandSpecialist:
		return "specialist"
	case BandExpert:
		return "expert"
	case BandCandidateMaster:
		return "candidate_master"
	case BandMaster:
		return "master"
	case BandGrandmaster:
		return "grandmaster"
	default:
		return "unrated"
	}
}

// Color is the display color of the tier, shared by every rating cell.
func (b Band) Color() string {
	switch b {
	case BandNewbie:
		return "gray"
	case BandPupil:
		return "green"
	case BandSpecialist:
		return "cyan"
	case BandExpert:
		return "blue"
	case BandCandidateMaster:
		return "purple"
	case BandMaster:
		return "orange"
	case BandGrandmaster:
		return "red"
	default:
		return "muted"
	}
}

// Emphasized reports whether cells of this tier are rendered bold.
func (b Band) Emphasized() bool {
	return b >= BandPupil
}
