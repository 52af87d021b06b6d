package service

import (
	"strings"
	"testing"

	"vocational-ai/internal/domain"
)

func TestAssembleRecommendation(t *testing.T) {
	cat := testCatalog(t)
	a := NewAssembler(cat)
	p := cyberProfile(t)
	axis := domain.AxisResult{Primary: "ciberseguridad", Confidence: 1}

	recs := a.Assemble(p, axis, []domain.Prediction{
		{Career: "Information Security Specialist", Probability: 0.3},
		{Career: "Cyber Security Specialist", Probability: 0.7049},
	}, 3)

	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	top := recs[0]
	if top.Career != "Cyber Security Specialist" || top.Compatibility != 70 {
		t.Fatalf("unexpected top recommendation %+v", top)
	}
	if top.Index != 5 || !strings.Contains(top.Image, "1510511459019") || top.Description == noDescription {
		t.Fatalf("catalog metadata missing: %+v", top)
	}
	if top.AxisID != "ciberseguridad" || top.AxisName != "Ciberseguridad" || top.IsHybrid {
		t.Fatalf("unexpected axis fields: %+v", top)
	}

	// Ciberseguridad, Redes y Forense empatan en 2.5; gana el orden de columna.
	want := []string{
		"Alto nivel en Ciberseguridad",
		"Alto nivel en Redes y Conectividad",
		"Alto nivel en Forense Digital",
		"Eje profesional: Ciberseguridad",
		"Confianza del eje: 100%",
	}
	if strings.Join(top.Reasons, "|") != strings.Join(want, "|") {
		t.Fatalf("reasons:\nwant %v\n got %v", want, top.Reasons)
	}
}

func TestAssembleHybridReasonsAndCap(t *testing.T) {
	cat := testCatalog(t)
	a := NewAssembler(cat)
	axis := domain.AxisResult{Primary: "ciberseguridad", Secondary: "infraestructura_redes", IsHybrid: true, Confidence: 0.3}

	recs := a.Assemble(cyberProfile(t), axis, []domain.Prediction{{Career: "Networking Engineer", Probability: 1.2}}, 3)
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	r := recs[0]
	if r.Compatibility != 100 {
		t.Fatalf("compatibility must be clamped to 100, got %d", r.Compatibility)
	}
	if len(r.Reasons) != MaxReasons {
		t.Fatalf("expected %d reasons, got %v", MaxReasons, r.Reasons)
	}
	if r.Reasons[4] != "Perfil híbrido con: Infraestructura & Redes" || r.Reasons[5] != "Confianza del eje: 30%" {
		t.Fatalf("unexpected hybrid reasons %v", r.Reasons)
	}
}

func TestAssembleUsesRankerReasonsAndUnknownCareer(t *testing.T) {
	cat := testCatalog(t)
	a := NewAssembler(cat)
	axis := domain.AxisResult{Primary: "ciberseguridad", Confidence: 1}

	recs := a.Assemble(cyberProfile(t), axis, []domain.Prediction{
		{Career: "Cyber Security Specialist", Probability: 0.6, Reasons: []string{"Fuerte en Cyber Security"}},
		{Career: "Quantum Plumber", Probability: 0.2},
	}, 3)

	if recs[0].Reasons[0] != "Fuerte en Cyber Security" || len(recs[0].Reasons) != 3 {
		t.Fatalf("ranker reasons must replace highlights: %v", recs[0].Reasons)
	}
	unknown := recs[1]
	if unknown.Index != -1 || unknown.Description != noDescription || unknown.Image == "" {
		t.Fatalf("unexpected fallback metadata %+v", unknown)
	}
}

func TestAssembleTruncatesToTop(t *testing.T) {
	cat := testCatalog(t)
	a := NewAssembler(cat)
	ranked := []domain.Prediction{
		{Career: "Software Developer", Probability: 0.1},
		{Career: "API Specialist", Probability: 0.4},
		{Career: "Software tester", Probability: 0.3},
		{Career: "Technical Writer", Probability: 0.2},
	}

	recs := a.Assemble(cyberProfile(t), domain.AxisResult{Primary: "desarrollo_software"}, ranked, 0)
	if len(recs) != DefaultTop {
		t.Fatalf("expected default top %d, got %d", DefaultTop, len(recs))
	}
	if recs[0].Career != "API Specialist" || recs[2].Career != "Technical Writer" {
		t.Fatalf("expected descending probability order, got %+v", recs)
	}
}
