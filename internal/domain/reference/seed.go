package reference

// Catálogo mínimo para que la búsqueda funcione out of the box.
// En producción se reemplaza por la carga del catálogo completo.

func SeedConditions() []Condition {
	return []Condition{
		{ID: "cond-j00", Code: "J00", Name: "Acute nasopharyngitis", Description: "Common cold", Synonyms: []string{"cold", "rhinitis"}},
		{ID: "cond-j45", Code: "J45", Name: "Asthma", Description: "Chronic inflammatory airway disease", Synonyms: []string{"bronchial asthma"}},
		{ID: "cond-e11", Code: "E11", Name: "Type 2 diabetes mellitus", Description: "Non-insulin-dependent diabetes", Synonyms: []string{"diabetes", "T2DM"}},
		{ID: "cond-i10", Code: "I10", Name: "Essential hypertension", Description: "Primary high blood pressure", Synonyms: []string{"hypertension", "high blood pressure"}},
		{ID: "cond-k21", Code: "K21", Name: "Gastro-esophageal reflux disease", Description: "GERD", Synonyms: []string{"reflux", "heartburn"}},
		{ID: "cond-g43", Code: "G43", Name: "Migraine", Description: "Recurrent headache disorder", Synonyms: []string{"migraine headache"}},
		{ID: "cond-n39", Code: "N39.0", Name: "Urinary tract infection", Description: "UTI, site not specified", Synonyms: []string{"UTI", "cystitis"}},
		{ID: "cond-j02", Code: "J02", Name: "Acute pharyngitis", Description: "Sore throat", Synonyms: []string{"pharyngitis", "sore throat"}},
		{ID: "cond-l20", Code: "L20", Name: "Atopic dermatitis", Description: "Chronic itchy skin inflammation", Synonyms: []string{"eczema"}},
		{ID: "cond-f41", Code: "F41", Name: "Anxiety disorder", Description: "Generalized and other anxiety disorders", Synonyms: []string{"anxiety"}},
	}
}

func SeedSymptoms() []Symptom {
	return []Symptom{
		{ID: "symp-fever", Name: "Fever", Category: "general", Description: "Elevated body temperature"},
		{ID: "symp-cough", Name: "Cough", Category: "respiratory", Description: "Dry or productive cough"},
		{ID: "symp-headache", Name: "Headache", Category: "neurological", Description: "Pain in the head or neck area"},
		{ID: "symp-fatigue", Name: "Fatigue", Category: "general", Description: "Persistent tiredness"},
		{ID: "symp-nausea", Name: "Nausea", Category: "gastrointestinal", Description: "Urge to vomit"},
		{ID: "symp-dizziness", Name: "Dizziness", Category: "neurological", Description: "Lightheadedness or vertigo"},
		{ID: "symp-chestpain", Name: "Chest pain", Category: "cardiovascular", Description: "Pain or pressure in the chest"},
		{ID: "symp-dyspnea", Name: "Shortness of breath", Category: "respiratory", Description: "Difficulty breathing"},
		{ID: "symp-rash", Name: "Skin rash", Category: "dermatological", Description: "Visible skin eruption"},
		{ID: "symp-abdpain", Name: "Abdominal pain", Category: "gastrointestinal", Description: "Pain in the abdomen"},
	}
}
