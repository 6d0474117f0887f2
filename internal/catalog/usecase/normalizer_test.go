package usecase

import (
	"errors"
	"testing"
	"time"

	"desguace-backend/pkg/metasync"
)

func TestNormalizeVehicle(t *testing.T) {
	n := NewNormalizer(1236)
	now := time.Now()

	rec := metasync.RawRecord{
		"idLocal":       float64(94010),
		"nombreMarca":   "Peugeot",
		"nombreModelo":  "207",
		"nombreVersion": "1.4 HDI",
		"anyoVehiculo":  float64(2008),
		"combustible":   "Diesel",
		"puertas":       float64(5),
		"imagenes":      []any{"https://img/1.jpg", "https://img/2.jpg"},
	}

	v, err := n.NormalizeVehicle(rec, now)
	if err != nil {
		t.Fatalf("NormalizeVehicle: %v", err)
	}
	if v.ExternalID != 94010 {
		t.Errorf("ExternalID = %d, want 94010", v.ExternalID)
	}
	if v.CompanyID != 1236 {
		t.Errorf("CompanyID = %d, want 1236", v.CompanyID)
	}
	if v.Description != "Peugeot 207 1.4 HDI (2008)" {
		t.Errorf("Description = %q", v.Description)
	}
	if !v.Active {
		t.Error("new vehicle should be active")
	}
	if len(v.Images) != 2 {
		t.Errorf("Images = %v", v.Images)
	}
}

func TestNormalizeVehicleMissingID(t *testing.T) {
	n := NewNormalizer(1236)

	_, err := n.NormalizeVehicle(metasync.RawRecord{"nombreMarca": "Seat"}, time.Now())
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("want MalformedRecordError, got %v", err)
	}
}

func TestNormalizePartDefaults(t *testing.T) {
	n := NewNormalizer(1236)

	p, err := n.NormalizePart(metasync.RawRecord{
		"refLocal":   float64(555001),
		"idVehiculo": float64(94010),
	}, nil, time.Now())
	if err != nil {
		t.Fatalf("NormalizePart: %v", err)
	}
	if p.FamilyDescription != "General" {
		t.Errorf("FamilyDescription = %q, want General", p.FamilyDescription)
	}
	if p.ArticleDescription != "Pieza 555001" {
		t.Errorf("ArticleDescription = %q, want Pieza 555001", p.ArticleDescription)
	}
	if p.Active {
		t.Error("new part must start inactive")
	}
}

func TestNormalizePartUnverifiedVehicleRef(t *testing.T) {
	n := NewNormalizer(1236)

	p, err := n.NormalizePart(metasync.RawRecord{
		"refLocal":   float64(555002),
		"idVehiculo": float64(-94010),
	}, nil, time.Now())
	if err != nil {
		t.Fatalf("NormalizePart: %v", err)
	}
	if p.VehicleRef.ID != 94010 {
		t.Errorf("VehicleRef.ID = %d, want 94010", p.VehicleRef.ID)
	}
	if p.VehicleRef.Verified {
		t.Error("negative feed id must mark the ref unverified")
	}
}

func TestNormalizePartPrice(t *testing.T) {
	n := NewNormalizer(1236)

	tests := []struct {
		name  string
		price any
		want  string
	}{
		{"comma separator", "125,50", "125.5"},
		{"dot separator", "80.999", "81"},
		{"unparsable", "consultar", "0"},
		{"negative", "-10", "0"},
		{"zero", "0", "0"},
		{"numeric", float64(42.5), "42.5"},
		{"missing", nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := metasync.RawRecord{"refLocal": float64(1)}
			if tt.price != nil {
				rec["precio"] = tt.price
			}
			p, err := n.NormalizePart(rec, nil, time.Now())
			if err != nil {
				t.Fatalf("NormalizePart: %v", err)
			}
			if got := p.Price.String(); got != tt.want {
				t.Errorf("Price = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalizePartDonorVehicleFields(t *testing.T) {
	n := NewNormalizer(1236)
	now := time.Now()

	donor, err := n.NormalizeVehicle(metasync.RawRecord{
		"idLocal":      float64(94010),
		"nombreMarca":  "Renault",
		"nombreModelo": "Clio",
		"anyoVehiculo": float64(2015),
	}, now)
	if err != nil {
		t.Fatalf("NormalizeVehicle: %v", err)
	}

	p, err := n.NormalizePart(metasync.RawRecord{
		"refLocal":   float64(7),
		"idVehiculo": float64(94010),
	}, donor, now)
	if err != nil {
		t.Fatalf("NormalizePart: %v", err)
	}
	if p.VehicleMake != "Renault" || p.VehicleModel != "Clio" || p.VehicleYear != 2015 {
		t.Errorf("donor fields not copied: %q %q %d", p.VehicleMake, p.VehicleModel, p.VehicleYear)
	}
}

func TestPickImagesPipeSeparated(t *testing.T) {
	rec := metasync.RawRecord{
		"UrlsImgs": "https://img/1.jpg | https://img/2.jpg",
	}
	images := pickImages(rec)
	if len(images) != 2 || images[0] != "https://img/1.jpg" {
		t.Errorf("pickImages = %v", images)
	}
}
