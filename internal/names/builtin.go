package names

// builtinNames maps common English transliterations to Hebrew script.
// User-provided translations in the database take over where this table ends.
var builtinNames = map[string]string{
	"aaron":    "אהרון",
	"abigail":  "אביגיל",
	"adam":     "אדם",
	"adi":      "עדי",
	"alon":     "אלון",
	"amir":     "אמיר",
	"amit":     "עמית",
	"anat":     "ענת",
	"ariel":    "אריאל",
	"avi":      "אבי",
	"aviv":     "אביב",
	"ayelet":   "איילת",
	"barak":    "ברק",
	"boaz":     "בועז",
	"dan":      "דן",
	"dana":     "דנה",
	"daniel":   "דניאל",
	"david":    "דוד",
	"dor":      "דור",
	"efrat":    "אפרת",
	"eitan":    "איתן",
	"eli":      "אלי",
	"gal":      "גל",
	"gil":      "גיל",
	"guy":      "גיא",
	"hadar":    "הדר",
	"hila":     "הילה",
	"idan":     "עידן",
	"ido":      "עידו",
	"ilan":     "אילן",
	"inbar":    "ענבר",
	"itai":     "איתי",
	"jonathan": "יונתן",
	"liat":     "ליאת",
	"lior":     "ליאור",
	"maya":     "מאיה",
	"michal":   "מיכל",
	"moran":    "מורן",
	"nadav":    "נדב",
	"netta":    "נטע",
	"nir":      "ניר",
	"noa":      "נועה",
	"noam":     "נועם",
	"ofir":     "אופיר",
	"omer":     "עומר",
	"or":       "אור",
	"oren":     "אורן",
	"rachel":   "רחל",
	"ron":      "רון",
	"ronen":    "רונן",
	"rotem":    "רותם",
	"sagi":     "שגיא",
	"sarah":    "שרה",
	"shai":     "שי",
	"shir":     "שיר",
	"shira":    "שירה",
	"tal":      "טל",
	"tamar":    "תמר",
	"tomer":    "תומר",
	"uri":      "אורי",
	"yael":     "יעל",
	"yair":     "יאיר",
	"yoav":     "יואב",
	"yonatan":  "יונתן",
	"yuval":    "יובל",
}
