// Package domain holds DTOs for the runs http surface
package domain

// TraceDTO is one uploaded trace body
type TraceDTO struct {
	Label string `json:"label,omitempty" validate:"omitempty,max=120" example:"bench"`
	Gcode string `json:"gcode" validate:"required"`
}

// ProfileInput profiles a single trace
type ProfileInput struct {
	Trace TraceDTO `json:"trace"`

	FilamentDiameterMM  float64  `json:"filament_diameter_mm,omitempty" validate:"omitempty,gt=0,lt=10" example:"1.75"`
	FilamentDensityGCM3 *float64 `json:"filament_density_g_cm3,omitempty" validate:"omitempty,gt=0" example:"1.24"`
	MaxFlowMM3S         *float64 `json:"max_flow_mm3_s,omitempty" validate:"omitempty,gt=0" example:"12"`
	MaxSpeedMMS         *float64 `json:"max_speed_mm_s,omitempty" validate:"omitempty,gt=0" example:"200"`
}

// CompareInput profiles a reference trace against one or more compares
type CompareInput struct {
	Ref      TraceDTO   `json:"ref"`
	Compares []TraceDTO `json:"compares" validate:"min=1,max=8,dive"`

	FilamentDiameterMM  float64  `json:"filament_diameter_mm,omitempty" validate:"omitempty,gt=0,lt=10" example:"1.75"`
	FilamentDensityGCM3 *float64 `json:"filament_density_g_cm3,omitempty" validate:"omitempty,gt=0" example:"1.24"`
	MaxFlowMM3S         *float64 `json:"max_flow_mm3_s,omitempty" validate:"omitempty,gt=0" example:"12"`
	MaxSpeedMMS         *float64 `json:"max_speed_mm_s,omitempty" validate:"omitempty,gt=0" example:"200"`
}
