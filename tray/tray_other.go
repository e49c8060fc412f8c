//go:build !darwin

package tray

func Init() <-chan struct{}     { return make(chan struct{}) }
func RefreshSources(rows []Row) {}
func updateStatusIcon(Status)   {}
func updateHeadline(string)     {}
func updateTooltip(string)      {}
func addUpdateMenuItem(string)  {}
func enableSwitch()             {}
func disableSwitch()            {}
func showGrant()                {}
func hideGrant()                {}
