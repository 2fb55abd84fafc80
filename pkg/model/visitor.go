package model

// Visitor receives resources dispatched by kind.
type Visitor interface {
	VisitNode(*Resource)
	VisitLink(*Resource)
	VisitLyph(*Resource)
	VisitRegion(*Resource)
	VisitBorder(*Resource)
	VisitMaterial(*Resource)
	VisitGroup(*Resource)
	// VisitOther receives every remaining kind, including unresolved ones.
	VisitOther(*Resource)
}

// Accept dispatches r to the visitor method for its kind.
func (r *Resource) Accept(v Visitor) {
	switch r.Kind {
	case KindNode:
		v.VisitNode(r)
	case KindLink:
		v.VisitLink(r)
	case KindLyph:
		v.VisitLyph(r)
	case KindRegion:
		v.VisitRegion(r)
	case KindBorder:
		v.VisitBorder(r)
	case KindMaterial:
		v.VisitMaterial(r)
	case KindGroup:
		v.VisitGroup(r)
	default:
		v.VisitOther(r)
	}
}

// Walk dispatches every resource of reg to v in insertion order.
func Walk(reg *Registry, v Visitor) {
	for _, r := range reg.All() {
		r.Accept(v)
	}
}

// BaseVisitor implements every Visitor method as a no-op. Embed it to
// handle only the kinds of interest.
type BaseVisitor struct{}

func (BaseVisitor) VisitNode(*Resource)     {}
func (BaseVisitor) VisitLink(*Resource)     {}
func (BaseVisitor) VisitLyph(*Resource)     {}
func (BaseVisitor) VisitRegion(*Resource)   {}
func (BaseVisitor) VisitBorder(*Resource)   {}
func (BaseVisitor) VisitMaterial(*Resource) {}
func (BaseVisitor) VisitGroup(*Resource)    {}
func (BaseVisitor) VisitOther(*Resource)    {}
