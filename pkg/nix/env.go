package nix

import "strings"

// Environment returns the environment overlay under which the freshly
// installed package manager runs. The installer script only edits shell rc
// files, which never reach this process, so the profile bin directory and
// the expression search path have to be spelled out explicitly.
//
// configPath points the NixOS evaluation at the copied top-level fragment on
// the target filesystem.
func Environment(home, user, basePath, channelName, configPath string) []string {
	profile := home + "/.nix-profile"
	channels := home + "/.nix-defexpr/channels"

	nixPath := strings.Join([]string{
		"nixpkgs=" + channels + "/" + channelName,
		"nixos-config=" + configPath,
	}, ":")

	return []string{
		"HOME=" + home,
		"USER=" + user,
		"PATH=" + profile + "/bin:" + basePath,
		"NIX_PATH=" + nixPath,
	}
}
