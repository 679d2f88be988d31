package tasks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/jobs/tasks"
)

func TestNewOrchestratorRunTask(t *testing.T) {
	t.Parallel()

	task, err := tasks.NewOrchestratorRunTask()
	require.NoError(t, err)
	assert.Equal(t, tasks.TypeOrchestratorRun, task.Type())
	assert.Nil(t, task.Payload())
}

func TestNewKomgaSyncTask(t *testing.T) {
	t.Parallel()

	task, err := tasks.NewKomgaSyncTask()
	require.NoError(t, err)
	assert.Equal(t, tasks.TypeKomgaSync, task.Type())
	assert.Nil(t, task.Payload())
}

func TestTaskTypeConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "orchestrator:run", tasks.TypeOrchestratorRun)
	assert.Equal(t, "komga:sync", tasks.TypeKomgaSync)
}
