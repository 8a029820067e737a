package models

// TimeSlots is the fixed enumerable set of routine slots.
var TimeSlots = []string{
	"06:00", "07:00", "08:00", "09:00", "10:00", "11:00",
	"12:00", "13:00", "14:00", "15:00", "16:00", "17:00",
	"18:00", "19:00", "20:00", "21:00", "22:00", "23:00", "00:00",
}

// Reserved routine assignment tokens. Anything else in a slot is a subject id.
const (
	RoutineBreak    = "break"
	RoutineRevision = "revision"
	RoutineExam     = "exam"
)

const DefaultExamDate = "2026-06-30"

var InitialProfile = Profile{
	Name:       "শিক্ষার্থীর নাম",
	College:    "কলেজের নাম",
	Session:    "২০২৪-২৫",
	Bio:        "আমি আমার সেরাটা দিতে প্রস্তুত!",
	TargetGoal: "A+",
	PhotoURL:   "",
}

// InitialSubjects seeds the progress tracker on first run.
var InitialSubjects = []Subject{
	{ID: "1", Name: "বাংলা ১ম পত্র", Progress: 0},
	{ID: "2", Name: "বাংলা ২য় পত্র", Progress: 0},
	{ID: "3", Name: "ইংরেজি ১ম পত্র", Progress: 0},
	{ID: "4", Name: "ইংরেজি ২য় পত্র", Progress: 0},
	{ID: "5", Name: "তথ্য ও যোগাযোগ প্রযুক্তি (ICT)", Progress: 0},
	{ID: "6", Name: "পদার্থবিজ্ঞান ১ম পত্র", Progress: 0},
	{ID: "7", Name: "পদার্থবিজ্ঞান ২য় পত্র", Progress: 0},
	{ID: "8", Name: "রসায়ন ১ম পত্র", Progress: 0},
	{ID: "9", Name: "রসায়ন ২য় পত্র", Progress: 0},
	{ID: "10", Name: "উচ্চতর গণিত ১ম পত্র", Progress: 0},
	{ID: "11", Name: "উচ্চতর গণিত ২য় পত্র", Progress: 0},
	{ID: "12", Name: "জীববিজ্ঞান ১ম পত্র", Progress: 0},
	{ID: "13", Name: "জীববিজ্ঞান ২য় পত্র", Progress: 0},
	{ID: "14", Name: "পৌরনীতি ও সুশাসন", Progress: 0},
	{ID: "15", Name: "অর্থনীতি ১ম পত্র", Progress: 0},
	{ID: "16", Name: "অর্থনীতি ২য় পত্র", Progress: 0},
	{ID: "17", Name: "যুক্তিবিদ্যা ১ম পত্র", Progress: 0},
	{ID: "18", Name: "যুক্তিবিদ্যা ২য় পত্র", Progress: 0},
	{ID: "19", Name: "ইসলামের ইতিহাস ও সংস্কৃতি ১ম", Progress: 0},
	{ID: "20", Name: "ইসলামের ইতিহাস ও সংস্কৃতি ২য়", Progress: 0},
}

// IsReservedRoutineToken reports whether v is one of the non-subject slot
// assignments.
func IsReservedRoutineToken(v string) bool {
	return v == RoutineBreak || v == RoutineRevision || v == RoutineExam
}

// IsValidTimeSlot reports whether label is one of the fixed routine slots.
func IsValidTimeSlot(label string) bool {
	for _, s := range TimeSlots {
		if s == label {
			return true
		}
	}
	return false
}
