package partition

import (
	"errors"
	"testing"

	"github.com/meoying/shardrouter/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordListener struct {
	names []string
}

func (r *recordListener) OnRegister(p *Partition) {
	r.names = append(r.names, p.Name)
}

func TestRegistry_Register(t *testing.T) {
	testCases := []struct {
		name       string
		partitions []*Partition
		wantNames  []string
		wantErr    error
	}{
		{
			name: "按照注册顺序返回",
			partitions: []*Partition{
				NewPartition("db_1", Target{Name: "db_1_w"}),
				NewPartition("db_0", Target{Name: "db_0_w"}, WithReads(Target{Name: "db_0_r0"})),
			},
			wantNames: []string{"db_1", "db_0"},
		},
		{
			name: "分区重复",
			partitions: []*Partition{
				NewPartition("db_0", Target{Name: "a"}),
				NewPartition("db_0", Target{Name: "b"}),
			},
			wantErr: errs.NewErrDuplicatePartition("db_0"),
		},
		{
			name: "分区为空",
			partitions: []*Partition{
				NewPartition("db_0", Target{}),
			},
			wantErr: errs.NewErrEmptyPartition("db_0"),
		},
		{
			name: "只有读库",
			partitions: []*Partition{
				NewPartition("db_0", Target{}, WithReads(Target{Name: "r0"})),
			},
			wantNames: []string{"db_0"},
		},
		{
			name: "物理库跨分区重复",
			partitions: []*Partition{
				NewPartition("db_0", Target{Name: "w"}),
				NewPartition("db_1", Target{Name: "w"}),
			},
			wantErr: errs.NewErrDuplicateTarget("db_1", "w"),
		},
		{
			name: "探活数据源和物理库重复",
			partitions: []*Partition{
				NewPartition("db_0", Target{Name: "w0"}, WithDetectors(Target{Name: "w0"}, Target{})),
			},
			wantErr: errs.NewErrDuplicateTarget("db_0", "w0"),
		},
		{
			name: "默认分区重复",
			partitions: []*Partition{
				NewPartition("db_0", Target{Name: "w0"}, AsDefault()),
				NewPartition("db_1", Target{Name: "w1"}, AsDefault()),
			},
			wantErr: errs.NewErrDuplicateDefault("db_0", "db_1"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := &recordListener{}
			r := NewRegistry(l)
			var err error
			for _, p := range tc.partitions {
				if err = r.Register(p); err != nil {
					break
				}
			}
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.Equal(t, tc.wantErr.Error(), err.Error())
				assert.True(t, errors.Is(err, errs.ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantNames, r.Names())
			assert.Equal(t, tc.wantNames, l.names)
		})
	}
}

func TestRegistry_Default(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Default())
	require.NoError(t, r.Register(NewPartition("db_0", Target{Name: "w0"})))
	require.NoError(t, r.Register(NewPartition("db_1", Target{Name: "w1"}, AsDefault())))
	assert.Equal(t, "db_1", r.Default().Name)
	p, ok := r.Get("db_0")
	assert.True(t, ok)
	assert.Equal(t, StrategyOnlyWrite, p.ReadStrategy)
	_, ok = r.Get("db_9")
	assert.False(t, ok)
	assert.Len(t, r.Partitions(), 2)
}

func TestPartition_Set(t *testing.T) {
	p := NewPartition("db_0", Target{})
	assert.Equal(t, errs.ErrNoWriteTarget, p.SetWrite(Target{}))
	require.NoError(t, p.SetWrite(Target{Name: "w"}))
	assert.Equal(t, errs.NewErrDuplicateWriteTarget("db_0").Error(), p.SetWrite(Target{Name: "w2"}).Error())

	assert.Equal(t, errs.ErrEmptyReadTargets, p.SetReads(nil))
	require.NoError(t, p.SetReads([]Target{{Name: "r0"}, {Name: "r1"}}))
	assert.Equal(t, errs.NewErrDuplicateReadTargets("db_0").Error(), p.SetReads([]Target{{Name: "r2"}}).Error())

	p.ReadDetector = Target{Name: "r0_detector"}
	assert.Equal(t, []Target{{Name: "w"}, {Name: "r0"}, {Name: "r1"}}, p.Targets())
	assert.Equal(t, []Target{{Name: "r0_detector"}}, p.Detectors())
}
