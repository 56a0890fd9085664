package export

// Config is the export section of the application config.
type Config struct {
	Options `mapstructure:",squash"`
	// OutputDir is where the CLI saves artifacts.
	OutputDir string `mapstructure:"output_dir" default:"./exports"`
	// UploadPrefix is the object key prefix of published artifacts.
	UploadPrefix string `mapstructure:"upload_prefix" default:"exports"`
}
