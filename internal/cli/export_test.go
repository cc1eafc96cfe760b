package cli

// Test-only aliases for unexported command internals.

var (
	RunTranscribe  = runTranscribe
	RunRecord      = runRecord
	RunLive        = runLive
	RunListDevices = runListDevices
	RunConfigSet   = runConfigSet
	RunConfigGet   = runConfigGet
	RunConfigList  = runConfigList
	RunDoctor      = runDoctor

	ResolveRunSettings = resolveRunSettings
	ConsumeRun         = consumeRun

	NormalizeConfigValue = normalizeConfigValue
	ConfigKeys           = configKeys

	RecordingName            = recordingName
	MoveFile                 = moveFile
	CopyFile                 = copyFile
	SizeOf                   = sizeOf
)

type (
	RecordOptions = recordOptions
	LiveOptions   = liveOptions
	RunFlags      = runFlags
	RunSettings   = runSettings
)
