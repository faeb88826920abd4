package sharding

import (
	"github.com/meoying/shardrouter/internal/errs"
)

// Repository 按名字查找分库算法，启动时注册
type Repository struct {
	algorithms map[string]Algorithm
}

func NewRepository() *Repository {
	return &Repository{algorithms: make(map[string]Algorithm, 4)}
}

func (r *Repository) Register(name string, a Algorithm) error {
	if _, ok := r.algorithms[name]; ok {
		return errs.NewErrDuplicateAlgorithm(name)
	}
	r.algorithms[name] = a
	return nil
}

func (r *Repository) Get(name string) (Algorithm, error) {
	a, ok := r.algorithms[name]
	if !ok {
		return nil, errs.NewErrUnknownAlgorithm(name)
	}
	return a, nil
}
