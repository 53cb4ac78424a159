package contracts

type Converter interface {
	Convert(request ConversionRequest) error
}

type ConversionRequest struct {
	InputPath  string
	OutputPath string
}

type InputFlags struct {
	ConfigPath       string
	LogLevel         string
	LogFormat        string
	JPEGTables       bool
	KeepFailedOutput bool
}
