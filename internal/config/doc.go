// Package config provides tool settings and installation paths for mythic-ctl.
//
// # Settings
//
// Settings tune how mythic-ctl drives its collaborators. They are read from
// an optional TOML file, by default <target>/mythic-ctl.toml:
//
//	[repository]
//	url = "https://github.com/its-a-feature/Mythic"
//	branch = "master"
//	retries = 3
//
//	[firewall]
//	chain = "DOCKER-USER"
//	admin_port = 0        # 0 follows NGINX_PORT from .env
//
//	[stack]
//	cli = "./mythic-cli"
//	compose_command = "docker"
//
//	[plugins]
//	select = ["apfell", "http"]
//
// A missing file yields DefaultSettings. Unknown keys are rejected so typos
// do not silently fall back to defaults.
//
// # Paths
//
// Paths derives every location mythic-ctl touches from the installation
// target directory. Plugin checkout directories are joined with
// filepath-securejoin so a plugin name can never escape the plugins directory.
package config
