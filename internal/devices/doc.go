// Package devices enumerates cameras and watches for them being plugged in
// or removed.
//
// List reads /dev/video* and the sysfs name of each node. Monitor subscribes
// to udev netlink events for the video4linux subsystem; it needs no udev
// rules, only permission to open a netlink socket.
package devices
