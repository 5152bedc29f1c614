package roles

import "github.com/nstehr/warren/warren-core/model"

// rung is one step of a body ladder: the first rung whose threshold the
// budget reaches wins.
type rung struct {
	min  int
	body []model.BodyPart
}

func ladder(rungs ...rung) func(budget int) []model.BodyPart {
	return func(budget int) []model.BodyPart {
		for _, r := range rungs {
			if budget >= r.min {
				return r.body
			}
		}
		return rungs[len(rungs)-1].body
	}
}

var (
	harvesterBody = ladder(
		rung{0, model.Body(1, 1, 1)},
	)
	minerBody = ladder(
		rung{600, model.Body(5, 0, 2)},
		rung{550, model.Body(5, 0, 1)},
		rung{400, model.Body(3, 0, 1)},
		rung{0, model.Body(2, 0, 1)},
	)
	moverBody = ladder(
		rung{800, model.Body(0, 10, 6)},
		rung{500, model.Body(0, 5, 4)},
		rung{450, model.Body(0, 5, 3)},
		rung{300, model.Body(0, 4, 2)},
		rung{0, model.Body(0, 2, 1)},
	)
	builderBody = ladder(
		rung{800, model.Body(5, 2, 4)},
		rung{550, model.Body(3, 2, 3)},
		rung{450, model.Body(2, 2, 2)},
		rung{300, model.Body(2, 1, 1)},
		rung{0, model.Body(1, 1, 1)},
	)
	upgraderBody = ladder(
		rung{800, model.Body(6, 1, 3)},
		rung{550, model.Body(4, 1, 2)},
		rung{400, model.Body(2, 1, 1)},
		rung{0, model.Body(1, 1, 1)},
	)
)
