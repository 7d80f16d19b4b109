package model

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// detectCycle walks the composition graph depth-first, starting from
// entities in the given order and following properties in declaration
// order, so the reported cycle is the same on every run.
func detectCycle(entities []*Entity) error {
	state := make(map[*Entity]visitState, len(entities))
	var stack []*Entity

	var visit func(e *Entity) error
	visit = func(e *Entity) error {
		state[e] = visiting
		stack = append(stack, e)

		for _, p := range e.Properties {
			for _, dep := range p.Type.Entities() {
				switch state[dep] {
				case visiting:
					return cycleError(stack, dep, p)
				case unvisited:
					if err := visit(dep); err != nil {
						return err
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[e] = visited
		return nil
	}

	for _, e := range entities {
		if state[e] != unvisited {
			continue
		}
		if err := visit(e); err != nil {
			return err
		}
	}
	return nil
}

func cycleError(stack []*Entity, target *Entity, via *Property) *CyclicReferenceError {
	start := 0
	for i, e := range stack {
		if e == target {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, e := range stack[start:] {
		path = append(path, e.Name)
	}
	path = append(path, target.Name)
	return &CyclicReferenceError{Path: path, Source: via.Source}
}
