/*
Package config loads the optional codemod project file.

	        +-----------------+
	        |  .codemod.*     |
	        +--------+--------+
	                 |
	     +-----------+-----------+
	     |                       |
	+----+-----+           +-----+----+
	|   YAML   |           |   HCL    |
	|  Parser  |           |  Parser  |
	+----+-----+           +-----+----+
	     |                       |
	     +-----------+-----------+
	                 |
	        +--------+--------+
	        | validate, fill  |
	        | defaults, make  |
	        | paths absolute  |
	        +-----------------+

🎯 Purpose:
- Finds `.codemod.yaml`, `.codemod.yml` or `.codemod.hcl` in the target directory
- Parses it with the parser registered for its extension
- Validates it with struct tags
- Resolves relative paths against the file's directory

Command line flags always win over file values; merging happens in the command.

🔍 Example:

	cfg, err := config.Find(ctx, target)
	if err != nil {
		return err
	}
	extras := cfg.ExtraRulesString()

HCL files can reference the directory they live in:

	rules_dir   = "${config_dir}/rules"
	extra_rules = ["move-log"]
	cpus        = 4
*/
package config
