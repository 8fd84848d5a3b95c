package types

// UpdateType representa el tipo de actualización disponible
type UpdateType string

const (
	UpdateTypeMajor   UpdateType = "major"
	UpdateTypeMinor   UpdateType = "minor"
	UpdateTypePatch   UpdateType = "patch"
	UpdateTypeUnknown UpdateType = "unknown"
	UpdateTypeNone    UpdateType = "none"
)

// String devuelve la representación string del tipo de actualización
func (u UpdateType) String() string {
	return string(u)
}

// IsSignificant determina si la actualización es significativa (major o minor)
func (u UpdateType) IsSignificant() bool {
	return u == UpdateTypeMajor || u == UpdateTypeMinor
}
