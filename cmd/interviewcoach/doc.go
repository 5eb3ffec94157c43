// Command interviewcoach records practice interview answers from the local
// camera and microphone, uploads them to the analysis service, and prints
// the coaching report.
//
//	interviewcoach record            # Enter or Ctrl+C stops recording
//	interviewcoach analyze talk.webm # analyze an existing file
//	interviewcoach sessions list     # history, newest first
//	interviewcoach sessions show ID  # re-render a stored analysis
//	interviewcoach devices list      # cameras under /dev/video*
//	interviewcoach doctor            # check ffmpeg, camera, and service
package main
