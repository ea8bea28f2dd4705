package pagination

// Pagination is the offset/limit window shared by list endpoints.
type Pagination struct {
	Limit  int `form:"limit,default=50" validate:"gte=1,lte=100"`
	Offset int `form:"offset,default=0" validate:"gte=0"`
}

// Normalize clamps the window to safe bounds.
func (p Pagination) Normalize() Pagination {
	out := p
	if out.Limit <= 0 {
		out.Limit = 50
	}
	if out.Limit > 100 {
		out.Limit = 100
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}
