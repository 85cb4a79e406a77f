package types

type CronManager interface {
	LifecycleManager
	Add(jobName, spec string, job func()) error
}
